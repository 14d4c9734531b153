package user

import (
	"time"

	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/notification"
)

type State string

const (
	StateNew      State = "new"
	StateActive   State = "active"
	StateInactive State = "inactive"
)

type FastingPreferences struct {
	FastingType fasting.Type `json:"fastingType" firestore:"fastingType"`
	StartTime   string       `json:"startTime" firestore:"startTime"`
}

type NotificationPreferences struct {
	Enabled               bool `json:"enabled" firestore:"enabled"`
	StartReminder         bool `json:"startReminder" firestore:"startReminder"`
	EndReminder           bool `json:"endReminder" firestore:"endReminder"`
	EncouragementMessages bool `json:"encouragementMessages" firestore:"encouragementMessages"`
}

// Profile is keyed by the identity provider's user id. It is created on first
// sign-in and never deleted.
type Profile struct {
	ID                      string                     `json:"id" firestore:"-" db:"id"`
	PhoneNumber             string                     `json:"phoneNumber" firestore:"phoneNumber" db:"phone_number"`
	DisplayName             string                     `json:"displayName" firestore:"displayName" db:"display_name"`
	PhotoURL                string                     `json:"photoURL" firestore:"photoURL" db:"photo_url"`
	FastingPreferences      FastingPreferences         `json:"fastingPreferences" firestore:"fastingPreferences" db:"fasting_preferences"`
	Timezone                string                     `json:"timezone" firestore:"timezone" db:"timezone"`
	ActiveChallengeID       *string                    `json:"activeChallenge" firestore:"activeChallenge" db:"active_challenge_id"`
	State                   State                      `json:"userState" firestore:"userState" db:"user_state"`
	WeightGoal              *float64                   `json:"weightGoal" firestore:"weightGoal" db:"weight_goal"`
	NotificationPreferences NotificationPreferences    `json:"notificationPreferences" firestore:"notificationPreferences" db:"notification_preferences"`
	DeviceTokens            []notification.DeviceToken `json:"-" firestore:"deviceTokens" db:"device_tokens"`
	CreatedAt               time.Time                  `json:"createdAt" firestore:"createdAt" db:"created_at"`
	LastActive              time.Time                  `json:"lastActive" firestore:"lastActive" db:"last_active"`
}

// New returns the profile written on first sign-in.
func New(id, phoneNumber, timezone string, now time.Time) *Profile {
	return &Profile{
		ID:          id,
		PhoneNumber: phoneNumber,
		FastingPreferences: FastingPreferences{
			FastingType: fasting.SixteenEight,
			StartTime:   "12:00",
		},
		Timezone: timezone,
		State:    StateNew,
		NotificationPreferences: NotificationPreferences{
			Enabled:               true,
			StartReminder:         true,
			EndReminder:           true,
			EncouragementMessages: true,
		},
		CreatedAt:  now,
		LastActive: now,
	}
}

// Location resolves the profile timezone, falling back when it is unset or unknown.
func (p *Profile) Location(fallback *time.Location) *time.Location {
	if p.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// AllowsPush reports whether a push of type t may reach the user's devices.
// StartReminder is read by the client, which schedules start reminders locally.
func (n NotificationPreferences) AllowsPush(t notification.NotificationType) bool {
	if !n.Enabled {
		return false
	}
	switch t {
	case notification.NotificationFastCompleted:
		return n.EndReminder
	case notification.NotificationChallengeJoined, notification.NotificationChallengeEnded:
		return n.EncouragementMessages
	}
	return true
}

func (p *Profile) InChallenge() bool {
	return p.ActiveChallengeID != nil && *p.ActiveChallengeID != ""
}
