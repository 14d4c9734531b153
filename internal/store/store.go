// Package store defines the persistence boundary shared by the memory,
// firestore and postgres backends. Reads return NotFoundError from apperr
// when a document is missing. Backends assign ids to new documents that
// arrive without one.
package store

import (
	"context"
	"time"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/internal/weight"
)

// Collection names, shared by all backends.
const (
	Users                 = "users"
	FastingRecords        = "fastingRecords"
	Challenges            = "challenges"
	ChallengeParticipants = "challengeParticipants"
	WeightRecords         = "weightRecords"
	Notifications         = "notifications"
	Friendships           = "friendships"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*user.Profile, error)
	SaveUser(ctx context.Context, p *user.Profile) error
	SetUserChallenge(ctx context.Context, userID string, challengeID *string, state user.State) error
	AddDeviceToken(ctx context.Context, userID string, token notification.DeviceToken) error
}

type FastingStore interface {
	CreateFastingRecord(ctx context.Context, r *fasting.Record) error
	GetFastingRecord(ctx context.Context, id string) (*fasting.Record, error)
	// FinishFastingRecord writes the end of a fast only while the stored
	// record is still ongoing; otherwise it returns apperr.FastAlreadyEnded.
	FinishFastingRecord(ctx context.Context, r *fasting.Record) error
	ListFastingRecords(ctx context.Context, userID string) ([]*fasting.Record, error)
	ListOngoingFasts(ctx context.Context) ([]*fasting.Record, error)
}

type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error)
	FindChallengesByInviteCode(ctx context.Context, code string) ([]*challenge.Challenge, error)
	ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error)
	UpdateChallengeParticipants(ctx context.Context, id string, participants []string) error
	UpdateChallengeStatus(ctx context.Context, id string, status challenge.Status) error
}

type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p *challenge.Participant) error
	GetParticipant(ctx context.Context, challengeID, userID string) (*challenge.Participant, error)
	ListParticipants(ctx context.Context, challengeID string) ([]*challenge.Participant, error)
	SaveParticipant(ctx context.Context, p *challenge.Participant) error
	DeleteParticipant(ctx context.Context, id string) error
}

type WeightStore interface {
	AddWeightRecord(ctx context.Context, r *weight.Record) error
	ListWeightRecords(ctx context.Context, userID string) ([]*weight.Record, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *notification.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*notification.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

type FriendshipStore interface {
	CreateFriendship(ctx context.Context, f *friendship.Friendship) error
	GetFriendship(ctx context.Context, id string) (*friendship.Friendship, error)
	FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error)
	ListFriendships(ctx context.Context, userID string) ([]*friendship.Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id string, status friendship.FriendshipStatus, at time.Time) error
	DeleteFriendship(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	FastingStore
	ChallengeStore
	ParticipantStore
	WeightStore
	NotificationStore
	FriendshipStore

	Close() error
}
