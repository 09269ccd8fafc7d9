package service

import (
	"context"
	"strings"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

type PostService struct {
	repo       *mysql.PostRepository
	memberRepo *mysql.MembershipRepository
	authz      *AuthzService
	likes      *PostLikeService
}

func NewPostService(db *gorm.DB, authz *AuthzService, likes *PostLikeService) *PostService {
	return &PostService{
		repo:       &mysql.PostRepository{DB: db},
		memberRepo: &mysql.MembershipRepository{DB: db},
		authz:      authz,
		likes:      likes,
	}
}

func (s *PostService) CreatePost(ctx context.Context, userID, communityID uint64, body string) (*model.CommunityPost, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("post body required", "body")
	}

	// 判断是否是 community 成员
	ok, err := s.memberRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotMember
	}

	post := &model.CommunityPost{
		CommunityID: communityID,
		AuthorID:    userID,
		Body:        body,
		Status:      model.PostNormal,
	}
	if err = s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListByCommunity 社区帖子列表
func (s *PostService) ListByCommunity(ctx context.Context, communityID uint64, page, size int) ([]model.CommunityPost, error) {
	offset, limit := pageOf(page, size, 20, 50)
	return s.repo.ListByCommunity(ctx, communityID, offset, limit)
}

// ListByCommunityCursor 游标分页：首次 lastID/lastCreatedAt 传零值，返回值作为下一页游标
func (s *PostService) ListByCommunityCursor(ctx context.Context, communityID, lastID uint64, lastCreatedAt time.Time, size int) ([]model.CommunityPost, uint64, time.Time, error) {
	_, limit := pageOf(1, size, 20, 50)
	list, err := s.repo.ListByCommunityCursor(ctx, communityID, lastID, lastCreatedAt, limit)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	var nextID uint64
	var nextTS time.Time
	if len(list) > 0 {
		last := list[len(list)-1]
		nextID, nextTS = last.ID, last.CreatedAt
	}
	return list, nextID, nextTS, nil
}

// DeletePost 作者或 manage_posts 持有者可删；已删除视为成功
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint64) error {
	if userID == 0 {
		return apperr.ErrUnauthorized
	}
	post, err := s.repo.FindAny(ctx, postID)
	if err != nil {
		return notFound(err, apperr.ErrPostNotFound)
	}
	if post.Status == model.PostDeleted {
		return nil
	}
	if post.AuthorID != userID {
		if err = s.authz.RequirePermission(ctx, userID, post.CommunityID, permission.ManagePosts); err != nil {
			return err
		}
	}
	affected, err := s.repo.SoftDelete(ctx, postID)
	if err != nil {
		return err
	}
	if affected > 0 && s.likes != nil {
		s.likes.forget(ctx, postID)
	}
	return nil
}
