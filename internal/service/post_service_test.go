package service

import (
	"context"
	"testing"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostServices(t *testing.T, f *fixture) (*PostService, *PostLikeService) {
	t.Helper()
	_, rdb := setupTestRedis(t)
	likes := NewPostLikeService(f.db, rdb, quietLogger())
	likes.backoff = time.Millisecond
	return NewPostService(f.db, f.authz, likes), likes
}

func TestCreateAndListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	posts, _ := newPostServices(t, f)
	c, pres := f.community(t, "CS Alumni", model.JoinOpen)
	stranger := createUser(t, f.db, "s@uni.edu")

	_, err := posts.CreatePost(ctx, stranger.ID, c.ID, "hello")
	assert.ErrorIs(t, err, apperr.ErrNotMember)

	_, err = posts.CreatePost(ctx, pres.ID, c.ID, "  ")
	assert.Equal(t, []string{"body"}, apperr.FieldsOf(err))

	for _, body := range []string{"one", "two", "three"} {
		_, err = posts.CreatePost(ctx, pres.ID, c.ID, body)
		require.NoError(t, err)
	}
	list, err := posts.ListByCommunity(ctx, c.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Body)

	page, nextID, nextTS, err := posts.ListByCommunityCursor(ctx, c.ID, 0, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	rest, _, _, err := posts.ListByCommunityCursor(ctx, c.ID, nextID, nextTS, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "one", rest[0].Body)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	posts, _ := newPostServices(t, f)
	c, pres := f.community(t, "CS Alumni", model.JoinOpen)
	author := f.member(t, c, "a@uni.edu")
	other := f.member(t, c, "o@uni.edu")

	p1, err := posts.CreatePost(ctx, author.ID, c.ID, "mine")
	require.NoError(t, err)
	p2, err := posts.CreatePost(ctx, author.ID, c.ID, "moderated")
	require.NoError(t, err)

	assert.ErrorIs(t, posts.DeletePost(ctx, other.ID, p1.ID), apperr.ErrForbidden)
	require.NoError(t, posts.DeletePost(ctx, author.ID, p1.ID))
	require.NoError(t, posts.DeletePost(ctx, author.ID, p1.ID), "deleting twice is fine")
	require.NoError(t, posts.DeletePost(ctx, other.ID, p1.ID), "already deleted")

	require.NoError(t, posts.DeletePost(ctx, pres.ID, p2.ID), "manage_posts holder")
	assert.ErrorIs(t, posts.DeletePost(ctx, author.ID, 9999), apperr.ErrPostNotFound)

	list, err := posts.ListByCommunity(ctx, c.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLikeUnlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	posts, likes := newPostServices(t, f)
	c, pres := f.community(t, "CS Alumni", model.JoinOpen)
	x := f.member(t, c, "x@uni.edu")
	p, err := posts.CreatePost(ctx, pres.ID, c.ID, "like me")
	require.NoError(t, err)

	changed, err := likes.Like(ctx, x.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = likes.Like(ctx, x.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	n, err := likes.LikeCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 计数已缓存，后续点赞直接自增
	_, err = likes.Like(ctx, pres.ID, p.ID)
	require.NoError(t, err)
	n, _ = likes.LikeCount(ctx, p.ID)
	assert.Equal(t, int64(2), n)

	liked, err := likes.IsLiked(ctx, x.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	changed, err = likes.Unlike(ctx, x.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = likes.Unlike(ctx, x.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	n, _ = likes.LikeCount(ctx, p.ID)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.PostLike{}))

	var stored model.CommunityPost
	require.NoError(t, f.db.First(&stored, p.ID).Error)
	assert.Equal(t, int64(1), stored.LikeCount)

	_, err = likes.Like(ctx, x.ID, 9999)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	_, err = likes.Like(ctx, 0, p.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = likes.LikeCount(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}
