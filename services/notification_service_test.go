package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store/memory"
	"fastingFriendsAPI/internal/testutil"
	"fastingFriendsAPI/internal/user"
)

type pushCall struct {
	tokens []notification.DeviceToken
	title  string
}

type fakePushProvider struct {
	calls chan pushCall
	err   error
}

func (p *fakePushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	p.calls <- pushCall{tokens: tokens, title: title}
	return p.err
}

func newNotificationEnv(t *testing.T) (*NotificationService, *memory.Store, *fakePushProvider) {
	t.Helper()
	st := memory.New()
	dispatcher := NewNotificationDispatcher(1, 4)
	t.Cleanup(dispatcher.Stop)
	provider := &fakePushProvider{calls: make(chan pushCall, 4)}
	svc := NewNotificationService(st, dispatcher)
	svc.SetPushProvider(provider)
	svc.now = func() time.Time { return testStart }
	return svc, st, provider
}

func TestCreateNotificationPushesToDevices(t *testing.T) {
	svc, st, provider := newNotificationEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, st, "u1", "Ann", testStart)
	require.NoError(t, svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: "tok-1", Platform: "iOS"}))

	n, err := svc.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: "u1", Type: notification.NotificationFastCompleted, Title: "Fast completed", Message: "nice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, testStart, n.CreatedAt)

	select {
	case call := <-provider.calls:
		assert.Equal(t, "Fast completed", call.title)
		assert.Equal(t, []notification.DeviceToken{{Token: "tok-1", Platform: "ios"}}, call.tokens)
	case <-time.After(2 * time.Second):
		t.Fatal("push was not sent")
	}
}

func TestCreateNotificationSkipsPushWhenDisabled(t *testing.T) {
	svc, st, provider := newNotificationEnv(t)
	ctx := context.Background()
	p := testutil.SeedUser(t, st, "u1", "Ann", testStart)
	p.NotificationPreferences.Enabled = false
	p.DeviceTokens = []notification.DeviceToken{{Token: "tok-1", Platform: "web"}}
	require.NoError(t, st.SaveUser(ctx, p))

	_, err := svc.CreateNotification(ctx, &notification.CreateNotificationRequest{UserID: "u1", Title: "hi"})
	require.NoError(t, err)

	select {
	case <-provider.calls:
		t.Fatal("push sent to a user with notifications disabled")
	case <-time.After(100 * time.Millisecond):
	}

	// still stored for the in-app list
	resp, err := svc.GetNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestNotificationPreferencesGatePushByType(t *testing.T) {
	svc, st, provider := newNotificationEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, st, "u1", "Ann", testStart)
	require.NoError(t, svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: "tok-1", Platform: "android"}))

	prefs, err := svc.UpdatePreferences(ctx, "u1", &user.NotificationPreferences{Enabled: true, EndReminder: false, EncouragementMessages: true})
	require.NoError(t, err)
	assert.False(t, prefs.EndReminder)

	_, err = svc.CreateNotification(ctx, &notification.CreateNotificationRequest{UserID: "u1", Type: notification.NotificationFastCompleted, Title: "done"})
	require.NoError(t, err)
	_, err = svc.CreateNotification(ctx, &notification.CreateNotificationRequest{UserID: "u1", Type: notification.NotificationChallengeJoined, Title: "joined"})
	require.NoError(t, err)

	select {
	case call := <-provider.calls:
		assert.Equal(t, "joined", call.title)
	case <-time.After(2 * time.Second):
		t.Fatal("push was not sent")
	}
	select {
	case call := <-provider.calls:
		t.Fatalf("unexpected push %q", call.title)
	case <-time.After(100 * time.Millisecond):
	}

	_, err = svc.UpdatePreferences(ctx, "ghost", &user.NotificationPreferences{})
	assert.True(t, apperr.IsNotFound(err))
}

func TestNotificationReadState(t *testing.T) {
	svc, st, _ := newNotificationEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, st, "u1", "Ann", testStart)

	first, err := svc.CreateNotification(ctx, &notification.CreateNotificationRequest{UserID: "u1", Title: "one"})
	require.NoError(t, err)
	_, err = svc.CreateNotification(ctx, &notification.CreateNotificationRequest{UserID: "u1", Title: "two"})
	require.NoError(t, err)

	count, err := svc.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.MarkAsRead(ctx, "u1", first.ID))
	count, err = svc.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.True(t, apperr.IsNotFound(svc.MarkAsRead(ctx, "u2", first.ID)))

	empty, err := svc.GetNotifications(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty.Notifications)
	assert.Zero(t, empty.TotalCount)
}

func TestRegisterDeviceValidation(t *testing.T) {
	svc, st, _ := newNotificationEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, st, "u1", "Ann", testStart)

	var ve *apperr.ValidationError
	err := svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: " ", Platform: "ios"})
	assert.True(t, errors.As(err, &ve))
	err = svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: "t", Platform: "symbian"})
	assert.True(t, errors.As(err, &ve))
	err = svc.RegisterDevice(ctx, "ghost", &notification.RegisterDeviceRequest{Token: "t", Platform: "web"})
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: "t", Platform: "web"}))
	require.NoError(t, svc.RegisterDevice(ctx, "u1", &notification.RegisterDeviceRequest{Token: "t", Platform: "web"}))
	p, _ := st.GetUser(ctx, "u1")
	assert.Len(t, p.DeviceTokens, 1)
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d := NewNotificationDispatcher(2, 1)
	d.Stop()
	d.Stop()
	// dispatching after stop must not block
	done := make(chan struct{})
	go func() {
		d.DispatchNotification(&notification.Notification{ID: "n1"}, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked after stop")
	}
}
