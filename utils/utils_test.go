package utils

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/notification"
)

type captureNotifier struct {
	mu   sync.Mutex
	reqs []*notification.CreateNotificationRequest
}

func (c *captureNotifier) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return &notification.Notification{UserID: req.UserID}, nil
}

func TestChallengeJoinedSkipsJoiner(t *testing.T) {
	n := &captureNotifier{}
	c := &challenge.Challenge{ID: "c1", Name: "March", Participants: []string{"a", "b", "c"}}

	ChallengeJoined(n, c, "c", "")

	require.Len(t, n.reqs, 2)
	assert.Equal(t, "a", n.reqs[0].UserID)
	assert.Equal(t, "b", n.reqs[1].UserID)
	assert.Equal(t, "Someone joined March", n.reqs[0].Message)
	assert.Equal(t, notification.NotificationChallengeJoined, n.reqs[0].Type)
}

func TestFastCompletedMessage(t *testing.T) {
	n := &captureNotifier{}
	FastCompleted(n, &fasting.Record{ID: "r1", UserID: "a", FastingType: fasting.SixteenEight, ActualDuration: 965})

	require.Len(t, n.reqs, 1)
	assert.Equal(t, "You completed your 16:8 fast (16h 5m)", n.reqs[0].Message)
	assert.Equal(t, "r1", n.reqs[0].Data["recordId"])
}

func TestNewFirebaseAppCredentialErrors(t *testing.T) {
	_, err := NewFirebaseApp(context.Background(), "", "not base64!", "")
	assert.ErrorContains(t, err, "decode")

	_, err = NewFirebaseApp(context.Background(), "", "", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "not found")
}

func TestSetupLoggingWritesFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	path := filepath.Join(t.TempDir(), "api.log")

	closer := SetupLogging(path)
	require.NotNil(t, closer)
	log.Printf("StartFast: hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "StartFast: hello")

	assert.Nil(t, SetupLogging(""))
}
