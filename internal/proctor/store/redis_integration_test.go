//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mockview/internal/proctor/models"
	"mockview/pkg/platform/sentinel"
	"mockview/pkg/testutil/containers"
)

type RedisSnapshotStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisSnapshotStore
}

func TestRedisSnapshotStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisSnapshotStoreSuite))
}

func (s *RedisSnapshotStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisSnapshotStore(s.redis.Client, time.Minute)
}

func (s *RedisSnapshotStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSnapshotStoreSuite) TestRoundTripWithTTL() {
	ctx := context.Background()
	snap := models.Snapshot{
		SessionID:       "session-1",
		InterviewID:     "interview-1",
		RemainingBudget: 0,
		Terminated:      true,
		EndReason:       models.EndBudgetExhausted,
	}
	s.Require().NoError(s.store.Save(ctx, snap))

	got, err := s.store.Get(ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(models.EndBudgetExhausted, got.EndReason)
	s.True(got.Terminated)

	ttl, err := s.redis.Client.TTL(ctx, keyPrefix+"session-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisSnapshotStoreSuite) TestMissingIsNotFound() {
	_, err := s.store.Get(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
