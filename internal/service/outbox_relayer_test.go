package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelayer_DrainOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, pres := f.community(t, "Eng Alumni", model.JoinRequest)
	y := createUser(t, f.db, "y@uni.edu")
	_, _, err := f.communities.JoinCommunity(ctx, c.ID, y.ID)
	require.NoError(t, err)
	m, _ := f.communities.memberRepo.Find(ctx, c.ID, y.ID)
	_, err = f.communities.ApproveMembership(ctx, c.ID, m.ID, pres.ID)
	require.NoError(t, err)

	producer := &fakeProducer{err: errors.New("broker down")}
	relayer := NewOutboxRelayer(f.db, producer, quietLogger())

	assert.Zero(t, relayer.DrainOnce(ctx))
	var ob model.CommunityOutbox
	require.NoError(t, f.db.First(&ob).Error)
	assert.Equal(t, model.OutboxFailed, ob.Status)
	assert.Equal(t, 1, ob.Retry)

	producer.err = nil
	assert.Equal(t, 1, relayer.DrainOnce(ctx))
	require.NoError(t, f.db.First(&ob, ob.ID).Error)
	assert.Equal(t, model.OutboxSent, ob.Status)

	require.Len(t, producer.keys, 1)
	assert.Equal(t, "1", producer.keys[0])
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(producer.vals[0]), &payload))
	assert.Equal(t, model.EventMemberApproved, payload["event"])
	assert.EqualValues(t, y.ID, payload["user_id"])

	assert.Zero(t, relayer.DrainOnce(ctx), "sent rows are not resent")
}

func TestOutboxRelayer_GivesUpAfterMaxRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&model.CommunityOutbox{
		EventType: model.EventRoleAssigned, CommunityID: 3, UserID: 4, Payload: "{}", Status: model.OutboxPending,
	}).Error)

	producer := &fakeProducer{err: errors.New("broker down")}
	relayer := NewOutboxRelayer(f.db, producer, quietLogger())
	for i := 0; i < mysql.MaxRetry+2; i++ {
		relayer.DrainOnce(ctx)
	}
	var ob model.CommunityOutbox
	require.NoError(t, f.db.First(&ob).Error)
	assert.Equal(t, mysql.MaxRetry, ob.Retry)
}
