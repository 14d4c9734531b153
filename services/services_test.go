package services

import (
	"testing"
	"time"

	"fastingFriendsAPI/internal/store/memory"
	"fastingFriendsAPI/internal/testutil"
)

var testStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	store      *testutil.FaultStore
	clock      *testutil.Clock
	notifier   *testutil.RecordingNotifier
	users      *UserService
	fasts      *FastingService
	challenges *ChallengeService
	friends    *FriendService
	weights    *WeightService
}

// newTestEnv wires every service against one in-memory store with a fixed
// clock and synchronous notifications.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := testutil.NewFaultStore(memory.New())
	clock := testutil.NewClock(testStart)
	notifier := &testutil.RecordingNotifier{}
	sync := func(f func()) { f() }

	users := NewUserService(st, time.UTC)
	users.now = clock.Now

	fasts := NewFastingService(st, notifier, time.UTC)
	fasts.now = clock.Now
	fasts.async = sync

	challenges := NewChallengeService(st, notifier, "https://fasting.test", time.UTC)
	challenges.now = clock.Now
	challenges.async = sync

	friends := NewFriendService(st, notifier)
	friends.now = clock.Now
	friends.async = sync

	weights := NewWeightService(st)
	weights.now = clock.Now

	return &testEnv{
		store:      st,
		clock:      clock,
		notifier:   notifier,
		users:      users,
		fasts:      fasts,
		challenges: challenges,
		friends:    friends,
		weights:    weights,
	}
}
