package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/user"
)

// setupTestStore migrates a throwaway schema. Skipped without TEST_DATABASE_URL.
func setupTestStore(t *testing.T) *Store {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())

	config, err := pgxpool.ParseConfig(databaseURL)
	require.NoError(t, err)
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		pool.Close()
	})

	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Migrate(ctx, pool), "migrations must be idempotent")
	return New(pool)
}

func TestUserRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.GetUser(ctx, "u1")
	assert.True(t, apperr.IsNotFound(err))

	p := user.New("u1", "+15550001", "Europe/Sofia", now)
	require.NoError(t, s.SaveUser(ctx, p))

	cid := "c1"
	require.NoError(t, s.SetUserChallenge(ctx, "u1", &cid, user.StateActive))
	require.NoError(t, s.AddDeviceToken(ctx, "u1", notification.DeviceToken{Token: "tok", Platform: "android"}))
	require.NoError(t, s.AddDeviceToken(ctx, "u1", notification.DeviceToken{Token: "tok", Platform: "android"}))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, fasting.SixteenEight, got.FastingPreferences.FastingType)
	require.NotNil(t, got.ActiveChallengeID)
	assert.Equal(t, "c1", *got.ActiveChallengeID)
	assert.Equal(t, user.StateActive, got.State)
	assert.Len(t, got.DeviceTokens, 1)

	assert.True(t, apperr.IsNotFound(s.SetUserChallenge(ctx, "ghost", nil, user.StateInactive)))
}

func TestChallengeAndParticipants(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	c := &challenge.Challenge{
		Name: "March", CreatorID: "u1", StartDate: now, EndDate: now.Add(72 * time.Hour),
		FastingType: fasting.SixteenEight, Participants: []string{"u1"},
		Status: challenge.StatusActive, InviteCode: "ABC123", CreatedAt: now,
	}
	require.NoError(t, s.CreateChallenge(ctx, c))
	require.NoError(t, s.UpdateChallengeParticipants(ctx, c.ID, []string{"u1", "u2"}))

	got, err := s.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.Participants)

	found, err := s.FindChallengesByInviteCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	p := &challenge.Participant{ChallengeID: c.ID, UserID: "u2", JoinedAt: now, Rank: 2}
	require.NoError(t, s.CreateParticipant(ctx, p))
	challenge.ApplyScore(p, &fasting.Record{ID: "r1", Date: now, Status: fasting.StatusCompleted, CompletionPercentage: 100})
	require.NoError(t, s.SaveParticipant(ctx, p))

	gp, err := s.GetParticipant(ctx, c.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 10, gp.TotalScore)
	require.Len(t, gp.DailyScores, 1)

	require.NoError(t, s.DeleteParticipant(ctx, p.ID))
	_, err = s.GetParticipant(ctx, c.ID, "u2")
	assert.True(t, apperr.IsNotFound(err))
}

func TestFinishFastingRecordOnlyOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r, err := fasting.NewRecord("u1", fasting.SixteenEight, "00:00", start, time.UTC)
	require.NoError(t, err)
	require.NoError(t, s.CreateFastingRecord(ctx, r))

	first, second := *r, *r
	require.NoError(t, fasting.Finish(&first, start.Add(16*time.Hour)))
	require.NoError(t, fasting.Finish(&second, start.Add(4*time.Hour)))

	require.NoError(t, s.FinishFastingRecord(ctx, &first))
	assert.True(t, apperr.HasCode(s.FinishFastingRecord(ctx, &second), apperr.CodeFastNotOngoing))

	got, err := s.GetFastingRecord(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, fasting.StatusCompleted, got.Status)

	assert.True(t, apperr.IsNotFound(s.FinishFastingRecord(ctx, &fasting.Record{ID: "ghost"})))
}
