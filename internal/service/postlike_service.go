package service

import (
	"context"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/repository/mysql"
	"alumni_network/internal/repository/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PostLikeService struct {
	repo      *mysql.PostLikeRepository
	postRepo  *mysql.PostRepository
	likeCache *redis.LikeCacheRepository
	lock      *redis.DistLock
	log       *logrus.Logger
	backoff   time.Duration
}

func NewPostLikeService(db *gorm.DB, rdb *goredis.Client, log *logrus.Logger) *PostLikeService {
	return &PostLikeService{
		repo:      &mysql.PostLikeRepository{DB: db},
		postRepo:  &mysql.PostRepository{DB: db},
		likeCache: redis.NewLikeCacheRepository(rdb),
		lock:      redis.NewDistLock(rdb),
		log:       log,
		backoff:   50 * time.Millisecond,
	}
}

func (s *PostLikeService) checkPost(ctx context.Context, userID, postID uint64) error {
	if userID == 0 {
		return apperr.ErrUnauthorized
	}
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return notFound(err, apperr.ErrPostNotFound)
	}
	return nil
}

// Like 先写库；缓存失败只记录日志，读路径会回填
func (s *PostLikeService) Like(ctx context.Context, userID, postID uint64) (bool, error) {
	if err := s.checkPost(ctx, userID, postID); err != nil {
		return false, err
	}
	changed, err := s.repo.Like(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if !changed {
		// 幂等命中时惰性回填集合
		s.likeCache.WarmIsLiked(ctx, userID, postID, true)
		return false, nil
	}
	if err = s.likeCache.AddLike(ctx, userID, postID); err != nil {
		s.log.WithError(err).WithField("post_id", postID).Warn("like cache update failed")
		s.forget(ctx, postID)
	}
	return true, nil
}

func (s *PostLikeService) Unlike(ctx context.Context, userID, postID uint64) (bool, error) {
	if err := s.checkPost(ctx, userID, postID); err != nil {
		return false, err
	}
	changed, err := s.repo.Unlike(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if !changed {
		s.likeCache.WarmIsLiked(ctx, userID, postID, false)
		return false, nil
	}
	if err = s.likeCache.RemoveLike(ctx, userID, postID); err != nil {
		s.log.WithError(err).WithField("post_id", postID).Warn("like cache update failed")
		s.forget(ctx, postID)
	}
	return true, nil
}

func (s *PostLikeService) IsLiked(ctx context.Context, userID, postID uint64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if b, ok, err := s.likeCache.IsLikedCached(ctx, userID, postID); err == nil && ok {
		return b, nil
	}
	b, err := s.repo.IsLiked(ctx, userID, postID)
	if err == nil {
		s.likeCache.WarmIsLiked(ctx, userID, postID, b)
	}
	return b, err
}

// LikeCount 缓存未命中时只让拿到锁的请求回源并回填
func (s *PostLikeService) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	if v, ok, err := s.likeCache.GetLikeCountCached(ctx, postID); err == nil && ok {
		return v, nil
	}
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return 0, notFound(err, apperr.ErrPostNotFound)
	}

	token := uuid.NewString()
	got, _ := s.lock.Acquire(ctx, postID, token)
	if got {
		defer func() {
			if err := s.lock.Release(ctx, postID, token); err != nil {
				s.log.WithError(err).WithField("post_id", postID).Warn("release like lock")
			}
		}()
		// 第二次检查
		if v, ok, err := s.likeCache.GetLikeCountCached(ctx, postID); err == nil && ok {
			return v, nil
		}
		v, err := s.repo.GetLikeCount(ctx, postID)
		if err != nil {
			return 0, err
		}
		_ = s.likeCache.SetLikeCount(ctx, postID, v)
		return v, nil
	}

	// 没拿到锁，短暂退避后再读一次缓存，避免全部打到 DB
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(s.backoff):
	}
	if v, ok, err := s.likeCache.GetLikeCountCached(ctx, postID); err == nil && ok {
		return v, nil
	}
	return s.repo.GetLikeCount(ctx, postID)
}

func (s *PostLikeService) forget(ctx context.Context, postID uint64) {
	if err := s.likeCache.Forget(ctx, postID); err != nil {
		s.log.WithError(err).WithField("post_id", postID).Warn("drop like cache")
	}
}
