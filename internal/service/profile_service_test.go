package service

import (
	"context"
	"testing"

	"alumni_network/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_ViewAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()
	u := createUser(t, db, "ada@uni.edu")

	name, company, year := "  Ada Lovelace ", "Analytical Engines", 1843
	got, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{FullName: &name, Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, "Analytical Engines", got.Company)

	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{GradYear: &year})
	assert.Equal(t, []string{"grad_year"}, apperr.FieldsOf(err))
	blank := " "
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{FullName: &blank})
	assert.Equal(t, []string{"full_name"}, apperr.FieldsOf(err))

	p, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName)
	assert.Equal(t, "Analytical Engines", p.Company, "untouched fields keep their value")
	assert.Zero(t, p.Connections)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	_, err = svc.UpdateProfile(ctx, 0, ProfileInput{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDirectory_HidesUnlistedAndBanned(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProfileService(db)
	ctx := context.Background()
	shown := createUser(t, db, "shown@uni.edu")
	hidden := createUser(t, db, "hidden@uni.edu")
	banned := createUser(t, db, "banned@uni.edu")

	no := false
	_, err := svc.UpdateProfile(ctx, hidden.ID, ProfileInput{ShowInDirectory: &no})
	require.NoError(t, err)
	require.NoError(t, db.Model(banned).Update("is_banned", true).Error)

	list, err := svc.Directory(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shown.ID, list[0].ID)

	_, err = svc.GetProfile(ctx, banned.ID)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	p, err := svc.GetProfile(ctx, hidden.ID)
	require.NoError(t, err, "unlisted profiles are still reachable by id")
	assert.Equal(t, hidden.ID, p.ID)
}
