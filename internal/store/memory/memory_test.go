package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/user"
)

func TestUserRoundTripDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.GetUser(ctx, "u1")
	assert.True(t, apperr.IsNotFound(err))

	p := user.New("u1", "+15550001", "UTC", now)
	require.NoError(t, s.SaveUser(ctx, p))
	p.DisplayName = "mutated after save"

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.DisplayName)

	cid := "c1"
	require.NoError(t, s.SetUserChallenge(ctx, "u1", &cid, user.StateActive))
	cid = "changed"
	got, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.ActiveChallengeID)
	assert.Equal(t, "c1", *got.ActiveChallengeID)
	assert.Equal(t, user.StateActive, got.State)

	require.NoError(t, s.SetUserChallenge(ctx, "u1", nil, user.StateInactive))
	got, _ = s.GetUser(ctx, "u1")
	assert.Nil(t, got.ActiveChallengeID)

	require.NoError(t, s.AddDeviceToken(ctx, "u1", notification.DeviceToken{Token: "t", Platform: "web"}))
	require.NoError(t, s.AddDeviceToken(ctx, "u1", notification.DeviceToken{Token: "t", Platform: "web"}))
	got, _ = s.GetUser(ctx, "u1")
	assert.Len(t, got.DeviceTokens, 1)
}

func TestChallengeParticipantsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := &challenge.Challenge{Name: "March", Participants: []string{"a"}, Status: challenge.StatusActive, InviteCode: "ABC123"}
	require.NoError(t, s.CreateChallenge(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := s.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	got.Participants = append(got.Participants, "b")

	again, _ := s.GetChallenge(ctx, c.ID)
	assert.Equal(t, []string{"a"}, again.Participants)

	require.NoError(t, s.UpdateChallengeParticipants(ctx, c.ID, []string{"a", "b"}))
	again, _ = s.GetChallenge(ctx, c.ID)
	assert.Equal(t, []string{"a", "b"}, again.Participants)

	found, err := s.FindChallengesByInviteCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, s.UpdateChallengeStatus(ctx, c.ID, challenge.StatusExpired))
	active, _ := s.ListActiveChallenges(ctx)
	assert.Empty(t, active)

	_, err = s.GetChallenge(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestParticipantLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &challenge.Participant{ChallengeID: "c1", UserID: "u1", Rank: 1}
	require.NoError(t, s.CreateParticipant(ctx, p))
	require.NoError(t, s.CreateParticipant(ctx, &challenge.Participant{ChallengeID: "c1", UserID: "u2", Rank: 2}))
	require.NoError(t, s.CreateParticipant(ctx, &challenge.Participant{ChallengeID: "c2", UserID: "u1", Rank: 1}))

	list, err := s.ListParticipants(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0].UserID)

	got, err := s.GetParticipant(ctx, "c1", "u1")
	require.NoError(t, err)
	got.TotalScore = 10
	require.NoError(t, s.SaveParticipant(ctx, got))
	got, _ = s.GetParticipant(ctx, "c1", "u1")
	assert.Equal(t, 10, got.TotalScore)

	require.NoError(t, s.DeleteParticipant(ctx, p.ID))
	_, err = s.GetParticipant(ctx, "c1", "u1")
	assert.True(t, apperr.IsNotFound(err))
	list, _ = s.ListParticipants(ctx, "c1")
	assert.Len(t, list, 1)
}

func TestOngoingFasts(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateFastingRecord(ctx, &fasting.Record{UserID: "u1", Status: fasting.StatusOngoing}))
	require.NoError(t, s.CreateFastingRecord(ctx, &fasting.Record{UserID: "u2", Status: fasting.StatusCompleted}))

	ongoing, err := s.ListOngoingFasts(ctx)
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "u1", ongoing[0].UserID)

	mine, _ := s.ListFastingRecords(ctx, "u2")
	assert.Len(t, mine, 1)
}

func TestFriendshipLookupIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := New()

	f := &friendship.Friendship{User1ID: "a", User2ID: "b", Status: friendship.FriendshipPending, InitiatedBy: "a"}
	require.NoError(t, s.CreateFriendship(ctx, f))

	got, err := s.FindFriendship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	require.NoError(t, s.UpdateFriendshipStatus(ctx, f.ID, friendship.FriendshipAccepted, time.Now()))
	got, _ = s.GetFriendship(ctx, f.ID)
	assert.Equal(t, friendship.FriendshipAccepted, got.Status)

	require.NoError(t, s.DeleteFriendship(ctx, f.ID))
	_, err = s.FindFriendship(ctx, "a", "b")
	assert.True(t, apperr.IsNotFound(err))
}

func TestNotificationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateNotification(ctx, &notification.Notification{UserID: "u1", Title: "old", CreatedAt: base}))
	n := &notification.Notification{UserID: "u1", Title: "new", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateNotification(ctx, n))

	list, err := s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Title)

	assert.True(t, apperr.IsNotFound(s.MarkNotificationRead(ctx, "someone-else", n.ID)))
	require.NoError(t, s.MarkNotificationRead(ctx, "u1", n.ID))
	list, _ = s.ListNotifications(ctx, "u1")
	assert.True(t, list[0].IsRead)
}

func TestFinishFastingRecordOnlyOnce(t *testing.T) {
	s := New()
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
