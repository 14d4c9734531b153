package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fastingFriendsAPI/internal/notification"
)

func TestAllowsPush(t *testing.T) {
	all := New("u1", "+15550001", "UTC", time.Now()).NotificationPreferences
	for _, typ := range []notification.NotificationType{
		notification.NotificationFriendRequest,
		notification.NotificationChallengeJoined,
		notification.NotificationFastCompleted,
	} {
		assert.True(t, all.AllowsPush(typ), typ)
	}

	quiet := NotificationPreferences{Enabled: true}
	assert.False(t, quiet.AllowsPush(notification.NotificationFastCompleted))
	assert.False(t, quiet.AllowsPush(notification.NotificationChallengeEnded))
	assert.True(t, quiet.AllowsPush(notification.NotificationFriendAccepted))

	off := all
	off.Enabled = false
	assert.False(t, off.AllowsPush(notification.NotificationFriendRequest))
}

func TestProfileLocationFallsBack(t *testing.T) {
	p := &Profile{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, p.Location(time.UTC))

	p.Timezone = "Europe/Sofia"
	assert.Equal(t, "Europe/Sofia", p.Location(time.UTC).String())
}
