package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/notification"
)

// NotificationCreator is the one method triggers need from the notification service.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

const triggerTimeout = 10 * time.Second

func send(notifier NotificationCreator, req *notification.CreateNotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	if _, err := notifier.CreateNotification(ctx, req); err != nil {
		log.Printf("Failed to create %s notification for %s: %v", req.Type, req.UserID, err)
	}
}

// ChallengeJoined tells every other participant that someone joined.
func ChallengeJoined(notifier NotificationCreator, c *challenge.Challenge, joinerID, joinerName string) {
	if joinerName == "" {
		joinerName = "Someone"
	}
	for _, id := range c.Participants {
		if id == joinerID {
			continue
		}
		send(notifier, &notification.CreateNotificationRequest{
			UserID:  id,
			Type:    notification.NotificationChallengeJoined,
			Title:   "New challenger",
			Message: fmt.Sprintf("%s joined %s", joinerName, c.Name),
			Data: map[string]any{
				"challengeId": c.ID,
				"userId":      joinerID,
			},
		})
	}
}

// ChallengeEnded tells every participant that the challenge is over.
func ChallengeEnded(notifier NotificationCreator, c *challenge.Challenge) {
	for _, id := range c.Participants {
		send(notifier, &notification.CreateNotificationRequest{
			UserID:  id,
			Type:    notification.NotificationChallengeEnded,
			Title:   "Challenge finished",
			Message: fmt.Sprintf("%s has ended. Check the final leaderboard!", c.Name),
			Data:    map[string]any{"challengeId": c.ID},
		})
	}
}

func FriendRequestSent(notifier NotificationCreator, fromID, fromName, toID, friendshipID string) {
	if fromName == "" {
		fromName = "Someone"
	}
	send(notifier, &notification.CreateNotificationRequest{
		UserID:  toID,
		Type:    notification.NotificationFriendRequest,
		Title:   "New friend request",
		Message: fmt.Sprintf("%s wants to fast with you", fromName),
		Data: map[string]any{
			"friendshipId": friendshipID,
			"fromUserId":   fromID,
		},
	})
}

func FriendRequestAccepted(notifier NotificationCreator, accepterID, accepterName, toID string) {
	if accepterName == "" {
		accepterName = "Someone"
	}
	send(notifier, &notification.CreateNotificationRequest{
		UserID:  toID,
		Type:    notification.NotificationFriendAccepted,
		Title:   "Friend request accepted",
		Message: fmt.Sprintf("%s accepted your friend request", accepterName),
		Data:    map[string]any{"userId": accepterID},
	})
}

// FastCompleted congratulates the owner of a fast that reached its target.
func FastCompleted(notifier NotificationCreator, r *fasting.Record) {
	send(notifier, &notification.CreateNotificationRequest{
		UserID:  r.UserID,
		Type:    notification.NotificationFastCompleted,
		Title:   "Fast completed",
		Message: fmt.Sprintf("You completed your %s fast (%dh %dm)", r.FastingType, r.ActualDuration/60, r.ActualDuration%60),
		Data:    map[string]any{"recordId": r.ID},
	})
}
