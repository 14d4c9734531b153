package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/testutil"
	"fastingFriendsAPI/internal/workers"
)

func TestStartJobsSweepsFastsAndChallenges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, env.store, "u1", "Ann", testStart)
	c := createTestChallenge(t, env, "u1")
	_, err := env.fasts.StartFast(ctx, "u1", &fasting.StartFastRequest{StartTime: "00:00"})
	require.NoError(t, err)

	env.clock.Set(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))

	g := &workers.Group{}
	StartJobs(ctx, g, env.fasts, env.challenges, 10*time.Millisecond, 10*time.Millisecond)
	defer g.Stop()

	assert.Eventually(t, func() bool {
		ongoing, err := env.store.ListOngoingFasts(ctx)
		return err == nil && len(ongoing) == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		got, err := env.store.GetChallenge(ctx, c.ID)
		return err == nil && got.Status == challenge.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)
}
