// Package firestore stores documents in Cloud Firestore using the collection
// layout of the mobile client. Queries are single-field equality filters;
// any ordering is done in memory after the fetch.
package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

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
	client *firestore.Client
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func NewWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// get loads one document into v, translating a missing document to apperr.
func (s *Store) get(ctx context.Context, collection, kind, id string, v any) error {
	snap, err := s.col(collection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return apperr.NotFound(kind, id)
		}
		return fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}
	if err := snap.DataTo(v); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, collection, kind, id string, updates []firestore.Update) error {
	_, err := s.col(collection).Doc(id).Update(ctx, updates)
	if err != nil {
		if isNotFound(err) {
			return apperr.NotFound(kind, id)
		}
		return fmt.Errorf("failed to update %s %s: %w", kind, id, err)
	}
	return nil
}

// query runs q and decodes every document, stamping its id with setID.
func query[T any](ctx context.Context, q firestore.Query, setID func(*T, string)) ([]*T, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		v := new(T)
		if err := d.DataTo(v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", d.Ref.Path, err)
		}
		setID(v, d.Ref.ID)
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) newID(collection, id string) string {
	if id != "" {
		return id
	}
	return s.col(collection).NewDoc().ID
}

// ---- users

func (s *Store) GetUser(ctx context.Context, id string) (*user.Profile, error) {
	p := &user.Profile{}
	if err := s.get(ctx, store.Users, "user", id, p); err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

func (s *Store) SaveUser(ctx context.Context, p *user.Profile) error {
	if _, err := s.col(store.Users).Doc(p.ID).Set(ctx, p); err != nil {
		return fmt.Errorf("failed to save user %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) SetUserChallenge(ctx context.Context, userID string, challengeID *string, state user.State) error {
	return s.update(ctx, store.Users, "user", userID, []firestore.Update{
		{Path: "activeChallenge", Value: challengeID},
		{Path: "userState", Value: state},
	})
}

func (s *Store) AddDeviceToken(ctx context.Context, userID string, token notification.DeviceToken) error {
	return s.update(ctx, store.Users, "user", userID, []firestore.Update{
		{Path: "deviceTokens", Value: firestore.ArrayUnion(token)},
	})
}

// ---- fasting records

func setRecordID(r *fasting.Record, id string) { r.ID = id }

func (s *Store) CreateFastingRecord(ctx context.Context, r *fasting.Record) error {
	r.ID = s.newID(store.FastingRecords, r.ID)
	if _, err := s.col(store.FastingRecords).Doc(r.ID).Set(ctx, r); err != nil {
		return fmt.Errorf("failed to create fasting record: %w", err)
	}
	return nil
}

func (s *Store) GetFastingRecord(ctx context.Context, id string) (*fasting.Record, error) {
	r := &fasting.Record{}
	if err := s.get(ctx, store.FastingRecords, "fasting record", id, r); err != nil {
		return nil, err
	}
	r.ID = id
	return r, nil
}

// FinishFastingRecord pins the update to the update time of the ongoing
// snapshot it read, so a concurrent end loses with FailedPrecondition.
func (s *Store) FinishFastingRecord(ctx context.Context, r *fasting.Record) error {
	ref := s.col(store.FastingRecords).Doc(r.ID)
	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return apperr.NotFound("fasting record", r.ID)
		}
		return fmt.Errorf("failed to get fasting record %s: %w", r.ID, err)
	}
	if st, err := snap.DataAt("status"); err != nil || st != string(fasting.StatusOngoing) {
		return apperr.FastAlreadyEnded()
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "actualEndTime", Value: r.ActualEndTime},
		{Path: "actualDuration", Value: r.ActualDuration},
		{Path: "completionPercentage", Value: r.CompletionPercentage},
		{Path: "status", Value: r.Status},
		{Path: "notes", Value: r.Notes},
	}, firestore.LastUpdateTime(snap.UpdateTime))
	if err != nil {
		if status.Code(err) == codes.FailedPrecondition {
			return apperr.FastAlreadyEnded()
		}
		return fmt.Errorf("failed to update fasting record %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) ListFastingRecords(ctx context.Context, userID string) ([]*fasting.Record, error) {
	out, err := query(ctx, s.col(store.FastingRecords).Where("userId", "==", userID), setRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fasting records: %w", err)
	}
	return out, nil
}

func (s *Store) ListOngoingFasts(ctx context.Context) ([]*fasting.Record, error) {
	out, err := query(ctx, s.col(store.FastingRecords).Where("status", "==", fasting.StatusOngoing), setRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing fasts: %w", err)
	}
	return out, nil
}

// ---- challenges

func setChallengeID(c *challenge.Challenge, id string) { c.ID = id }

func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	c.ID = s.newID(store.Challenges, c.ID)
	if _, err := s.col(store.Challenges).Doc(c.ID).Set(ctx, c); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	if err := s.get(ctx, store.Challenges, "challenge", id, c); err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

func (s *Store) FindChallengesByInviteCode(ctx context.Context, code string) ([]*challenge.Challenge, error) {
	out, err := query(ctx, s.col(store.Challenges).Where("inviteCode", "==", code), setChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find challenge by invite code: %w", err)
	}
	return out, nil
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	out, err := query(ctx, s.col(store.Challenges).Where("status", "==", challenge.StatusActive), setChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateChallengeParticipants(ctx context.Context, id string, participants []string) error {
	return s.update(ctx, store.Challenges, "challenge", id, []firestore.Update{
		{Path: "participants", Value: participants},
	})
}

func (s *Store) UpdateChallengeStatus(ctx context.Context, id string, st challenge.Status) error {
	return s.update(ctx, store.Challenges, "challenge", id, []firestore.Update{
		{Path: "status", Value: st},
	})
}

// ---- participants

func setParticipantID(p *challenge.Participant, id string) { p.ID = id }

func (s *Store) CreateParticipant(ctx context.Context, p *challenge.Participant) error {
	p.ID = s.newID(store.ChallengeParticipants, p.ID)
	if _, err := s.col(store.ChallengeParticipants).Doc(p.ID).Set(ctx, p); err != nil {
		return fmt.Errorf("failed to create challenge participant: %w", err)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, challengeID, userID string) (*challenge.Participant, error) {
	q := s.col(store.ChallengeParticipants).
		Where("challengeId", "==", challengeID).
		Where("userId", "==", userID).
		Limit(1)
	out, err := query(ctx, q, setParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge participant: %w", err)
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("challenge participant", challengeID+"/"+userID)
	}
	return out[0], nil
}

func (s *Store) ListParticipants(ctx context.Context, challengeID string) ([]*challenge.Participant, error) {
	out, err := query(ctx, s.col(store.ChallengeParticipants).Where("challengeId", "==", challengeID), setParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge participants: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *Store) SaveParticipant(ctx context.Context, p *challenge.Participant) error {
	return s.update(ctx, store.ChallengeParticipants, "challenge participant", p.ID, []firestore.Update{
		{Path: "dailyScores", Value: p.DailyScores},
		{Path: "totalScore", Value: p.TotalScore},
		{Path: "completedDays", Value: p.CompletedDays},
		{Path: "rank", Value: p.Rank},
	})
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	if _, err := s.col(store.ChallengeParticipants).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete challenge participant %s: %w", id, err)
	}
	return nil
}

// ---- weights

func (s *Store) AddWeightRecord(ctx context.Context, r *weight.Record) error {
	r.ID = s.newID(store.WeightRecords, r.ID)
	if _, err := s.col(store.WeightRecords).Doc(r.ID).Set(ctx, r); err != nil {
		return fmt.Errorf("failed to add weight record: %w", err)
	}
	return nil
}

func (s *Store) ListWeightRecords(ctx context.Context, userID string) ([]*weight.Record, error) {
	out, err := query(ctx, s.col(store.WeightRecords).Where("userId", "==", userID), func(r *weight.Record, id string) { r.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list weight records: %w", err)
	}
	return out, nil
}

// ---- notifications

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	n.ID = s.newID(store.Notifications, n.ID)
	if _, err := s.col(store.Notifications).Doc(n.ID).Set(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*notification.Notification, error) {
	out, err := query(ctx, s.col(store.Notifications).Where("userId", "==", userID), func(n *notification.Notification, id string) { n.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	n := &notification.Notification{}
	if err := s.get(ctx, store.Notifications, "notification", id, n); err != nil {
		return err
	}
	if n.UserID != userID {
		return apperr.NotFound("notification", id)
	}
	return s.update(ctx, store.Notifications, "notification", id, []firestore.Update{
		{Path: "isRead", Value: true},
	})
}

// ---- friendships

func setFriendshipID(f *friendship.Friendship, id string) { f.ID = id }

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	f.ID = s.newID(store.Friendships, f.ID)
	if _, err := s.col(store.Friendships).Doc(f.ID).Set(ctx, f); err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func (s *Store) GetFriendship(ctx context.Context, id string) (*friendship.Friendship, error) {
	f := &friendship.Friendship{}
	if err := s.get(ctx, store.Friendships, "friendship", id, f); err != nil {
		return nil, err
	}
	f.ID = id
	return f, nil
}

func (s *Store) FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		q := s.col(store.Friendships).
			Where("user1Id", "==", pair[0]).
			Where("user2Id", "==", pair[1]).
			Limit(1)
		out, err := query(ctx, q, setFriendshipID)
		if err != nil {
			return nil, fmt.Errorf("failed to find friendship: %w", err)
		}
		if len(out) > 0 {
			return out[0], nil
		}
	}
	return nil, apperr.NotFound("friendship", a+"/"+b)
}

func (s *Store) ListFriendships(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	var all []*friendship.Friendship
	for _, field := range []string{"user1Id", "user2Id"} {
		out, err := query(ctx, s.col(store.Friendships).Where(field, "==", userID), setFriendshipID)
		if err != nil {
			return nil, fmt.Errorf("failed to list friendships: %w", err)
		}
		all = append(all, out...)
	}
	return all, nil
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, id string, st friendship.FriendshipStatus, at time.Time) error {
	return s.update(ctx, store.Friendships, "friendship", id, []firestore.Update{
		{Path: "status", Value: st},
		{Path: "updatedAt", Value: at},
	})
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	if _, err := s.col(store.Friendships).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete friendship %s: %w", id, err)
	}
	return nil
}
