package notification

import "time"

type NotificationType string

const (
	NotificationFriendRequest   NotificationType = "friend_request"
	NotificationFriendAccepted  NotificationType = "friend_accepted"
	NotificationChallengeJoined NotificationType = "challenge_joined"
	NotificationChallengeEnded  NotificationType = "challenge_ended"
	NotificationFastCompleted   NotificationType = "fast_completed"
)

type Notification struct {
	ID        string           `json:"id" firestore:"-" db:"id"`
	UserID    string           `json:"userId" firestore:"userId" db:"user_id"`
	Type      NotificationType `json:"type" firestore:"type" db:"type"`
	Title     string           `json:"title" firestore:"title" db:"title"`
	Message   string           `json:"message" firestore:"message" db:"message"`
	Data      map[string]any   `json:"data" firestore:"data" db:"data"`
	IsRead    bool             `json:"isRead" firestore:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" firestore:"createdAt" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token" firestore:"token"`
	Platform string `json:"platform" firestore:"platform"`
}
