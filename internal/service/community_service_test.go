package service

import (
	"context"
	"errors"
	"testing"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateCommunity_ProvisionsPresident(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, owner := f.community(t, "CS Alumni", model.JoinOpen)

	assert.Equal(t, int64(1), countRows(t, f.db, &model.RoleAssignment{}, "community_id = ?", c.ID))

	var ra model.RoleAssignment
	require.NoError(t, f.db.Where("community_id = ?", c.ID).First(&ra).Error)
	assert.Equal(t, owner.ID, ra.UserID)

	var role model.CommunityRole
	require.NoError(t, f.db.Preload("Permissions").First(&role, ra.RoleID).Error)
	assert.Equal(t, permission.OwnerRoleName, role.Name)
	keys := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		keys = append(keys, p.Key)
	}
	assert.ElementsMatch(t, permission.Defaults(permission.OwnerRoleName), keys)

	m, err := f.communities.memberRepo.Find(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, model.MembershipApproved, m.Status)

	for _, k := range permission.Keys() {
		ok, err := f.authz.HasPermission(ctx, owner.ID, c.ID, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
	}
}

func TestCreateCommunity_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := createUser(t, f.db, "a@uni.edu")

	_, err := f.communities.CreateCommunity(ctx, u.ID, "   ", "", model.JoinOpen)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, []string{"name"}, apperr.FieldsOf(err))

	_, err = f.communities.CreateCommunity(ctx, u.ID, "X", "", model.JoinMode("invite"))
	assert.Equal(t, []string{"join_mode"}, apperr.FieldsOf(err))

	_, err = f.communities.CreateCommunity(ctx, 0, "X", "", model.JoinOpen)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	c, err := f.communities.CreateCommunity(ctx, u.ID, "Defaults", "", "")
	require.NoError(t, err)
	assert.False(t, c.JoinRequiresApproval)
}

func TestCreateCommunity_DuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, owner := f.community(t, "CS Alumni", model.JoinOpen)

	_, err := f.communities.CreateCommunity(ctx, owner.ID, "CS Alumni", "", model.JoinOpen)
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.communities.CreateCommunity(ctx, owner.ID, "  CS Alumni  ", "", model.JoinOpen)
	assert.ErrorIs(t, err, apperr.ErrDuplicateName)

	_, err = f.communities.CreateCommunity(ctx, owner.ID, "cs alumni", "", model.JoinOpen)
	assert.NoError(t, err, "names compare case-sensitively")
}

func TestCreateCommunity_RollsBackWhenProvisioningFails(t *testing.T) {
	f := newFixture(t)
	u := createUser(t, f.db, "a@uni.edu")

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_assignment", func(tx *gorm.DB) {
		if tx.Statement.Table == "role_assignments" {
			_ = tx.AddError(errors.New("boom"))
		}
	}))

	_, err := f.communities.CreateCommunity(context.Background(), u.ID, "Broken", "", model.JoinOpen)
	require.Error(t, err)

	assert.Zero(t, countRows(t, f.db, &model.Community{}))
	assert.Zero(t, countRows(t, f.db, &model.CommunityRole{}))
	assert.Zero(t, countRows(t, f.db, &model.RolePermission{}))
	assert.Zero(t, countRows(t, f.db, &model.CommunityMembership{}))
}

func TestEnsureOwnerSetup_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, owner := f.community(t, "Idem", model.JoinOpen)

	snapshot := func() [4]int64 {
		return [4]int64{
			countRows(t, f.db, &model.CommunityRole{}),
			countRows(t, f.db, &model.RolePermission{}),
			countRows(t, f.db, &model.RoleAssignment{}),
			countRows(t, f.db, &model.CommunityMembership{}),
		}
	}
	before := snapshot()
	require.NoError(t, f.communities.EnsureOwnerSetup(ctx, c.ID, owner.ID))
	require.NoError(t, f.communities.EnsureOwnerSetup(ctx, c.ID, owner.ID))
	assert.Equal(t, before, snapshot())

	assert.ErrorIs(t, f.communities.EnsureOwnerSetup(ctx, 999, owner.ID), apperr.ErrCommunityNotFound)
}

func TestJoin_OpenCommunityApprovesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.community(t, "CS Alumni", model.JoinOpen)
	x := createUser(t, f.db, "x@uni.edu")

	status, already, err := f.communities.JoinCommunity(ctx, c.ID, x.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipApproved, status)
	assert.False(t, already)

	status, already, err = f.communities.JoinCommunity(ctx, c.ID, x.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipApproved, status)
	assert.True(t, already)
	assert.Equal(t, int64(1), countRows(t, f.db, &model.CommunityMembership{}, "user_id = ?", x.ID))

	_, _, err = f.communities.JoinCommunity(ctx, 404, x.ID)
	assert.ErrorIs(t, err, apperr.ErrCommunityNotFound)
}

func TestJoin_RequestCommunityNeedsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, admin := f.community(t, "Eng Alumni", model.JoinRequest)
	y := createUser(t, f.db, "y@uni.edu")

	status, _, err := f.communities.JoinCommunity(ctx, c.ID, y.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipPending, status)

	ok, err := f.communities.IsMember(ctx, c.ID, y.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := f.communities.ListPendingMembers(ctx, c.ID, admin.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	m, err := f.communities.ApproveMembership(ctx, c.ID, pending[0].ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipApproved, m.Status)

	again, err := f.communities.ApproveMembership(ctx, c.ID, pending[0].ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, model.MembershipApproved, again.Status)

	assert.Equal(t, int64(1), countRows(t, f.db, &model.CommunityOutbox{}, "event_type = ?", model.EventMemberApproved))

	ok, _ = f.communities.IsMember(ctx, c.ID, y.ID)
	assert.True(t, ok)
}

func TestApproveMembership_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, admin := f.community(t, "Eng Alumni", model.JoinRequest)
	other, _ := f.community(t, "Other", model.JoinRequest)
	y := createUser(t, f.db, "y@uni.edu")
	_, _, err := f.communities.JoinCommunity(ctx, c.ID, y.ID)
	require.NoError(t, err)
	m, _ := f.communities.memberRepo.Find(ctx, c.ID, y.ID)

	_, err = f.communities.ApproveMembership(ctx, c.ID, m.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.communities.ApproveMembership(ctx, c.ID, m.ID, y.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.communities.ApproveMembership(ctx, c.ID, 9999, admin.ID)
	assert.ErrorIs(t, err, apperr.ErrMembershipNotFound)

	// 另一个社区的 President 不能审批这里的成员
	_, err = f.communities.ApproveMembership(ctx, other.ID, m.ID, admin.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.communities.ApproveMembership(ctx, other.ID, m.ID, other.OwnerUserID)
	assert.ErrorIs(t, err, apperr.ErrMembershipNotFound)
}

func TestHasPermission_FalseForNonMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, _ := f.community(t, "CS Alumni", model.JoinOpen)
	stranger := createUser(t, f.db, "s@uni.edu")
	plain := f.member(t, c, "m@uni.edu")

	for _, k := range permission.Keys() {
		ok, err := f.authz.HasPermission(ctx, stranger.ID, c.ID, k)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = f.authz.HasPermission(ctx, plain.ID, c.ID, k)
		require.NoError(t, err)
		assert.False(t, ok, "membership alone grants nothing")
	}
	ok, err := f.authz.HasPermission(ctx, 0, c.ID, permission.ManageMembers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaveCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, owner := f.community(t, "CS Alumni", model.JoinOpen)
	x := f.member(t, c, "x@uni.edu")

	require.NoError(t, f.communities.LeaveCommunity(ctx, c.ID, x.ID))
	ok, _ := f.communities.IsMember(ctx, c.ID, x.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, f.communities.LeaveCommunity(ctx, c.ID, x.ID), apperr.ErrMembershipNotFound)

	err := f.communities.LeaveCommunity(ctx, c.ID, owner.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListAndViewCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, owner := f.community(t, "A", model.JoinOpen)
	f.community(t, "B", model.JoinOpen)

	list, err := f.communities.ListCommunities(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name, "newest first")

	view, err := f.communities.ViewCommunity(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, view.IsMember)
	assert.Empty(t, view.Posts)

	view, err = f.communities.ViewCommunity(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.False(t, view.IsMember)

	_, err = f.communities.ViewCommunity(ctx, 404, 0)
	assert.ErrorIs(t, err, apperr.ErrCommunityNotFound)
}
