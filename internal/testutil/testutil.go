// Package testutil holds fixtures shared by service and handler tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/store/memory"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/internal/weight"
)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SeedUser stores a fresh profile and returns it.
func SeedUser(t *testing.T, st store.Store, id, displayName string, now time.Time) *user.Profile {
	t.Helper()
	p := user.New(id, "+1555"+id, "UTC", now)
	p.DisplayName = displayName
	if err := st.SaveUser(context.Background(), p); err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}
	return p
}

// RecordingNotifier collects notification requests instead of sending them.
type RecordingNotifier struct {
	mu       sync.Mutex
	Requests []*notification.CreateNotificationRequest
}

func (n *RecordingNotifier) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Requests = append(n.Requests, req)
	return &notification.Notification{UserID: req.UserID, Type: req.Type, Title: req.Title, Message: req.Message}, nil
}

func (n *RecordingNotifier) For(userID string) []*notification.CreateNotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*notification.CreateNotificationRequest
	for _, r := range n.Requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// FaultStore wraps a Store, records every write by method name and fails the
// writes named in Fail.
type FaultStore struct {
	store.Store

	mu     sync.Mutex
	writes []string
	Fail   map[string]error
}

func NewFaultStore(inner store.Store) *FaultStore {
	if inner == nil {
		inner = memory.New()
	}
	return &FaultStore{Store: inner, Fail: make(map[string]error)}
}

func (s *FaultStore) write(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, method)
	return s.Fail[method]
}

func (s *FaultStore) FailOn(method string, err error) {
	s.mu.Lock()
	s.Fail[method] = err
	s.mu.Unlock()
}

func (s *FaultStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *FaultStore) ResetWrites() {
	s.mu.Lock()
	s.writes = nil
	s.mu.Unlock()
}

func (s *FaultStore) SaveUser(ctx context.Context, p *user.Profile) error {
	if err := s.write("SaveUser"); err != nil {
		return err
	}
	return s.Store.SaveUser(ctx, p)
}

func (s *FaultStore) SetUserChallenge(ctx context.Context, userID string, challengeID *string, state user.State) error {
	if err := s.write("SetUserChallenge"); err != nil {
		return err
	}
	return s.Store.SetUserChallenge(ctx, userID, challengeID, state)
}

func (s *FaultStore) AddDeviceToken(ctx context.Context, userID string, token notification.DeviceToken) error {
	if err := s.write("AddDeviceToken"); err != nil {
		return err
	}
	return s.Store.AddDeviceToken(ctx, userID, token)
}

func (s *FaultStore) CreateFastingRecord(ctx context.Context, r *fasting.Record) error {
	if err := s.write("CreateFastingRecord"); err != nil {
		return err
	}
	return s.Store.CreateFastingRecord(ctx, r)
}

func (s *FaultStore) FinishFastingRecord(ctx context.Context, r *fasting.Record) error {
	if err := s.write("FinishFastingRecord"); err != nil {
		return err
	}
	return s.Store.FinishFastingRecord(ctx, r)
}

func (s *FaultStore) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	if err := s.write("CreateChallenge"); err != nil {
		return err
	}
	return s.Store.CreateChallenge(ctx, c)
}

func (s *FaultStore) UpdateChallengeParticipants(ctx context.Context, id string, participants []string) error {
	if err := s.write("UpdateChallengeParticipants"); err != nil {
		return err
	}
	return s.Store.UpdateChallengeParticipants(ctx, id, participants)
}

func (s *FaultStore) UpdateChallengeStatus(ctx context.Context, id string, status challenge.Status) error {
	if err := s.write("UpdateChallengeStatus"); err != nil {
		return err
	}
	return s.Store.UpdateChallengeStatus(ctx, id, status)
}

func (s *FaultStore) CreateParticipant(ctx context.Context, p *challenge.Participant) error {
	if err := s.write("CreateParticipant"); err != nil {
		return err
	}
	return s.Store.CreateParticipant(ctx, p)
}

func (s *FaultStore) SaveParticipant(ctx context.Context, p *challenge.Participant) error {
	if err := s.write("SaveParticipant"); err != nil {
		return err
	}
	return s.Store.SaveParticipant(ctx, p)
}

func (s *FaultStore) DeleteParticipant(ctx context.Context, id string) error {
	if err := s.write("DeleteParticipant"); err != nil {
		return err
	}
	return s.Store.DeleteParticipant(ctx, id)
}

func (s *FaultStore) AddWeightRecord(ctx context.Context, r *weight.Record) error {
	if err := s.write("AddWeightRecord"); err != nil {
		return err
	}
	return s.Store.AddWeightRecord(ctx, r)
}

func (s *FaultStore) CreateNotification(ctx context.Context, n *notification.Notification) error {
	if err := s.write("CreateNotification"); err != nil {
		return err
	}
	return s.Store.CreateNotification(ctx, n)
}

func (s *FaultStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	if err := s.write("MarkNotificationRead"); err != nil {
		return err
	}
	return s.Store.MarkNotificationRead(ctx, userID, id)
}

func (s *FaultStore) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	if err := s.write("CreateFriendship"); err != nil {
		return err
	}
	return s.Store.CreateFriendship(ctx, f)
}

func (s *FaultStore) UpdateFriendshipStatus(ctx context.Context, id string, status friendship.FriendshipStatus, at time.Time) error {
	if err := s.write("UpdateFriendshipStatus"); err != nil {
		return err
	}
	return s.Store.UpdateFriendshipStatus(ctx, id, status, at)
}

func (s *FaultStore) DeleteFriendship(ctx context.Context, id string) error {
	if err := s.write("DeleteFriendship"); err != nil {
		return err
	}
	return s.Store.DeleteFriendship(ctx, id)
}
