// Package memory is an in-process Store used by tests and local development.
// Every read returns a copy so callers never alias stored state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/internal/weight"
)

type Store struct {
	mu sync.RWMutex

	users         map[string]*user.Profile
	fasts         map[string]*fasting.Record
	challenges    map[string]*challenge.Challenge
	participants  map[string]*challenge.Participant
	weights       map[string]*weight.Record
	notifications map[string]*notification.Notification
	friendships   map[string]*friendship.Friendship

	// insertion order keeps listings deterministic
	order map[string][]string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:         make(map[string]*user.Profile),
		fasts:         make(map[string]*fasting.Record),
		challenges:    make(map[string]*challenge.Challenge),
		participants:  make(map[string]*challenge.Participant),
		weights:       make(map[string]*weight.Record),
		notifications: make(map[string]*notification.Notification),
		friendships:   make(map[string]*friendship.Friendship),
		order:         make(map[string][]string),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) track(collection, id string) {
	s.order[collection] = append(s.order[collection], id)
}

func (s *Store) untrack(collection, id string) {
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// ---- users

func copyProfile(p *user.Profile) *user.Profile {
	c := *p
	if p.ActiveChallengeID != nil {
		id := *p.ActiveChallengeID
		c.ActiveChallengeID = &id
	}
	if p.WeightGoal != nil {
		g := *p.WeightGoal
		c.WeightGoal = &g
	}
	c.DeviceTokens = append([]notification.DeviceToken(nil), p.DeviceTokens...)
	return &c
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[id]
	if !ok {
		return nil, apperr.UserNotFound(id)
	}
	return copyProfile(p), nil
}

func (s *Store) SaveUser(ctx context.Context, p *user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.ID]; !ok {
		s.track(store.Users, p.ID)
	}
	s.users[p.ID] = copyProfile(p)
	return nil
}

func (s *Store) SetUserChallenge(ctx context.Context, userID string, challengeID *string, state user.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return apperr.UserNotFound(userID)
	}
	if challengeID != nil {
		id := *challengeID
		p.ActiveChallengeID = &id
	} else {
		p.ActiveChallengeID = nil
	}
	p.State = state
	return nil
}

func (s *Store) AddDeviceToken(ctx context.Context, userID string, token notification.DeviceToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return apperr.UserNotFound(userID)
	}
	for _, t := range p.DeviceTokens {
		if t.Token == token.Token {
			return nil
		}
	}
	p.DeviceTokens = append(p.DeviceTokens, token)
	return nil
}

// ---- fasting records

func copyRecord(r *fasting.Record) *fasting.Record {
	c := *r
	if r.ActualEndTime != nil {
		t := *r.ActualEndTime
		c.ActualEndTime = &t
	}
	if r.ChallengeID != nil {
		id := *r.ChallengeID
		c.ChallengeID = &id
	}
	return &c
}

func (s *Store) CreateFastingRecord(ctx context.Context, r *fasting.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = newID(r.ID)
	s.fasts[r.ID] = copyRecord(r)
	s.track(store.FastingRecords, r.ID)
	return nil
}

func (s *Store) GetFastingRecord(ctx context.Context, id string) (*fasting.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.fasts[id]
	if !ok {
		return nil, apperr.NotFound("fasting record", id)
	}
	return copyRecord(r), nil
}

func (s *Store) FinishFastingRecord(ctx context.Context, r *fasting.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.fasts[r.ID]
	if !ok {
		return apperr.NotFound("fasting record", r.ID)
	}
	if cur.Status != fasting.StatusOngoing {
		return apperr.FastAlreadyEnded()
	}
	s.fasts[r.ID] = copyRecord(r)
	return nil
}

func (s *Store) ListFastingRecords(ctx context.Context, userID string) ([]*fasting.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*fasting.Record
	for _, id := range s.order[store.FastingRecords] {
		if r := s.fasts[id]; r.UserID == userID {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

func (s *Store) ListOngoingFasts(ctx context.Context) ([]*fasting.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*fasting.Record
	for _, id := range s.order[store.FastingRecords] {
		if r := s.fasts[id]; r.Status == fasting.StatusOngoing {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

// ---- challenges

func copyChallenge(c *challenge.Challenge) *challenge.Challenge {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = newID(c.ID)
	s.challenges[c.ID] = copyChallenge(c)
	s.track(store.Challenges, c.ID)
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, apperr.ChallengeNotFound(id)
	}
	return copyChallenge(c), nil
}

func (s *Store) FindChallengesByInviteCode(ctx context.Context, code string) ([]*challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*challenge.Challenge
	for _, id := range s.order[store.Challenges] {
		if c := s.challenges[id]; c.InviteCode == code {
			out = append(out, copyChallenge(c))
		}
	}
	return out, nil
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*challenge.Challenge
	for _, id := range s.order[store.Challenges] {
		if c := s.challenges[id]; c.Status == challenge.StatusActive {
			out = append(out, copyChallenge(c))
		}
	}
	return out, nil
}

func (s *Store) UpdateChallengeParticipants(ctx context.Context, id string, participants []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return apperr.ChallengeNotFound(id)
	}
	c.Participants = append([]string(nil), participants...)
	return nil
}

func (s *Store) UpdateChallengeStatus(ctx context.Context, id string, status challenge.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return apperr.ChallengeNotFound(id)
	}
	c.Status = status
	return nil
}

// ---- participants

func copyParticipant(p *challenge.Participant) *challenge.Participant {
	c := *p
	c.DailyScores = append([]challenge.DailyScore(nil), p.DailyScores...)
	return &c
}

func (s *Store) CreateParticipant(ctx context.Context, p *challenge.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	s.participants[p.ID] = copyParticipant(p)
	s.track(store.ChallengeParticipants, p.ID)
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, challengeID, userID string) (*challenge.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order[store.ChallengeParticipants] {
		p := s.participants[id]
		if p.ChallengeID == challengeID && p.UserID == userID {
			return copyParticipant(p), nil
		}
	}
	return nil, apperr.NotFound("challenge participant", challengeID+"/"+userID)
}

func (s *Store) ListParticipants(ctx context.Context, challengeID string) ([]*challenge.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*challenge.Participant
	for _, id := range s.order[store.ChallengeParticipants] {
		if p := s.participants[id]; p.ChallengeID == challengeID {
			out = append(out, copyParticipant(p))
		}
	}
	return out, nil
}

func (s *Store) SaveParticipant(ctx context.Context, p *challenge.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; !ok {
		return apperr.NotFound("challenge participant", p.ID)
	}
	s.participants[p.ID] = copyParticipant(p)
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[id]; !ok {
		return apperr.NotFound("challenge participant", id)
	}
	delete(s.participants, id)
	s.untrack(store.ChallengeParticipants, id)
	return nil
}

// ---- weights

func (s *Store) AddWeightRecord(ctx context.Context, r *weight.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = newID(r.ID)
	c := *r
	s.weights[r.ID] = &c
	s.track(store.WeightRecords, r.ID)
	return nil
}

func (s *Store) ListWeightRecords(ctx context.Context, userID string) ([]*weight.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*weight.Record
	for _, id := range s.order[store.WeightRecords] {
		if r := s.weights[id]; r.UserID == userID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

// ---- notifications

func copyNotification(n *notification.Notification) *notification.Notification {
	c := *n
	if n.Data != nil {
		c.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	return &c
}

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = newID(n.ID)
	s.notifications[n.ID] = copyNotification(n)
	s.track(store.Notifications, n.ID)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*notification.Notification
	for _, id := range s.order[store.Notifications] {
		if n := s.notifications[id]; n.UserID == userID {
			out = append(out, copyNotification(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperr.NotFound("notification", id)
	}
	n.IsRead = true
	return nil
}

// ---- friendships

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = newID(f.ID)
	c := *f
	s.friendships[f.ID] = &c
	s.track(store.Friendships, f.ID)
	return nil
}

func (s *Store) GetFriendship(ctx context.Context, id string) (*friendship.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.friendships[id]
	if !ok {
		return nil, apperr.NotFound("friendship", id)
	}
	c := *f
	return &c, nil
}

func (s *Store) FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order[store.Friendships] {
		f := s.friendships[id]
		if (f.User1ID == a && f.User2ID == b) || (f.User1ID == b && f.User2ID == a) {
			c := *f
			return &c, nil
		}
	}
	return nil, apperr.NotFound("friendship", a+"/"+b)
}

func (s *Store) ListFriendships(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*friendship.Friendship
	for _, id := range s.order[store.Friendships] {
		if f := s.friendships[id]; f.Involves(userID) {
			c := *f
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, id string, status friendship.FriendshipStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok {
		return apperr.NotFound("friendship", id)
	}
	f.Status = status
	f.UpdatedAt = at
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendships[id]; !ok {
		return apperr.NotFound("friendship", id)
	}
	delete(s.friendships, id)
	s.untrack(store.Friendships, id)
	return nil
}
