package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/store/memory"
	"fastingFriendsAPI/internal/testutil"
	"fastingFriendsAPI/middleware"
	"fastingFriendsAPI/services"
)

// tokenVerifier accepts "token-<uid>".
type tokenVerifier struct{}

func (tokenVerifier) Verify(ctx context.Context, token string) (*middleware.Session, error) {
	uid, ok := strings.CutPrefix(token, "token-")
	if !ok || uid == "" {
		return nil, errors.New("bad token")
	}
	return &middleware.Session{UserID: uid, PhoneNumber: "+1555" + uid}, nil
}

type testAPI struct {
	router     *mux.Router
	challenges *services.ChallengeService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	notifier := &testutil.RecordingNotifier{}
	dispatcher := services.NewNotificationDispatcher(1, 10)
	t.Cleanup(dispatcher.Stop)

	users := services.NewUserService(st, time.UTC)
	fasts := services.NewFastingService(st, notifier, time.UTC)
	challenges := services.NewChallengeService(st, notifier, "https://fasting.test", time.UTC)
	friends := services.NewFriendService(st, notifier)
	weights := services.NewWeightService(st)
	notifications := services.NewNotificationService(st, dispatcher)

	set := &Set{
		Users:         NewUserHandler(users),
		Fasts:         NewFastingHandler(fasts),
		Challenges:    NewChallengeHandler(challenges),
		Friends:       NewFriendHandler(friends),
		Weights:       NewWeightHandler(weights),
		Notifications: NewNotificationHandler(notifications),
	}
	r := mux.NewRouter()
	live := NewLiveProgressHandler(context.Background(), challenges, tokenVerifier{}, 20*time.Millisecond)
	r.HandleFunc("/api/v1/challenges/{id}/live", live.Stream)
	set.Register(r, middleware.AuthMiddleware(tokenVerifier{}, users))
	return &testAPI{router: r, challenges: challenges}
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer token-"+userID)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func (a *testAPI) createChallenge(t *testing.T, userID string) *challenge.Challenge {
	t.Helper()
	today := time.Now().UTC()
	rec := a.do(t, http.MethodPost, "/api/v1/challenges", userID, challenge.CreateChallengeRequest{
		Name:        "Spring cleanse",
		Description: "Daily 16:8",
		StartDate:   today.Format("2006-01-02"),
		EndDate:     today.AddDate(0, 0, 6).Format("2006-01-02"),
		FastingType: fasting.SixteenEight,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*challenge.Challenge](t, rec)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/v1/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileCreatedOnFirstCall(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/user/profile", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "u1", profile["id"])
	assert.Equal(t, "new", profile["userState"])

	rec = api.do(t, http.MethodPut, "/api/v1/user/preferences", "u1", map[string]string{"fastingType": "OMAD", "startTime": "18:00"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/user/schedule", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "17:00", decode[fasting.EndTimeResponse](t, rec).EndTime)

	rec = api.do(t, http.MethodPut, "/api/v1/user/preferences", "u1", map[string]string{"fastingType": "OMAD", "startTime": "7pm"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinChallengeFlow(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")

	rec := api.do(t, http.MethodPost, "/api/v1/challenges/join", "u2", challenge.JoinChallengeRequest{InviteCode: strings.ToLower(c.InviteCode)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[challenge.JoinResult](t, rec)
	assert.Equal(t, "Successfully joined challenge", res.Message)
	assert.Equal(t, c.ID, res.ChallengeID)

	rec = api.do(t, http.MethodPost, "/api/v1/challenges/join", "u2", challenge.JoinChallengeRequest{ChallengeID: c.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Already a participant", decode[challenge.JoinResult](t, rec).Message)

	rec = api.do(t, http.MethodGet, "/api/v1/challenges/"+c.ID+"/leaderboard", "u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*challenge.Participant](t, rec), 2)

	rec = api.do(t, http.MethodGet, "/api/v1/challenges/active", "u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[map[string]*challenge.Challenge](t, rec)
	require.NotNil(t, active["challenge"])
	assert.Equal(t, c.ID, active["challenge"].ID)
}

func TestJoinChallengeErrors(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")
	api.createChallenge(t, "u3")

	rec := api.do(t, http.MethodPost, "/api/v1/challenges/join", "u2", challenge.JoinChallengeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/challenges/join", "u2", challenge.JoinChallengeRequest{InviteCode: "??"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/challenges/join", "u2", challenge.JoinChallengeRequest{ChallengeID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/challenges/join", "u3", challenge.JoinChallengeRequest{ChallengeID: c.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You are already in an active challenge. Complete or leave it before joining another one", errorMessage(t, rec))
}

func TestPrefillJoin(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")

	rec := api.do(t, http.MethodGet, "/join-challenge?code="+c.InviteCode, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, challenge.PrefillResponse{InviteCode: c.InviteCode, Valid: true}, decode[challenge.PrefillResponse](t, rec))

	rec = api.do(t, http.MethodGet, "/join-challenge?code=ZZZZZZ", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[challenge.PrefillResponse](t, rec).Valid)

	rec = api.do(t, http.MethodGet, "/join-challenge", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFastLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/fasts/current", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[map[string]any](t, rec)["record"])

	rec = api.do(t, http.MethodPost, "/api/v1/fasts/start", "u1", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/fasts/start", "u1", fasting.StartFastRequest{FastingType: fasting.OMAD})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/fasts/current", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[fasting.CurrentFastResponse](t, rec).Record)

	rec = api.do(t, http.MethodPost, "/api/v1/fasts/end", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, fasting.StatusOngoing, decode[fasting.Record](t, rec).Status)

	rec = api.do(t, http.MethodPost, "/api/v1/fasts/end", "u1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/fasts/history?limit=3", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*fasting.Record](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/api/v1/fasts/stats", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[fasting.Stats](t, rec).TotalFasts)
}

func TestWeights(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/weights", "u1", map[string]string{"weight": "-4"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "weight: Please enter a valid weight", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/api/v1/weights", "u1", map[string]string{"weight": "70.2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/weights", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestFriends(t *testing.T) {
	api := newTestAPI(t)
	// create both profiles
	api.do(t, http.MethodGet, "/api/v1/user/profile", "u2", nil)

	rec := api.do(t, http.MethodPost, "/api/v1/friends", "u1", map[string]string{"friendId": "u2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f := decode[map[string]any](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/friends", "u2", map[string]string{"friendId": "u1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Friendship already exists", errorMessage(t, rec))

	rec = api.do(t, http.MethodPut, "/api/v1/friends/requests/"+f["id"].(string)+"/accept", "u2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/friends/leaderboard", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decode[map[string]any](t, rec)["totalUsers"])

	rec = api.do(t, http.MethodDelete, "/api/v1/friends/u2", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotifications(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/notifications/register-device", "u1", map[string]string{"token": "abc", "platform": "android"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"unreadCount": 0}, decode[map[string]int](t, rec))

	rec = api.do(t, http.MethodPut, "/api/v1/notifications/nope/read", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveProgressStream(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/challenges/" + c.ID + "/live"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token=token-u1", nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg progressMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "progress", msg.Action)
		require.NotNil(t, msg.Data)
		assert.Equal(t, c.ID, msg.Data.Challenge.ID)
		assert.Len(t, msg.Data.Participants, 1)
	}
}

func dialLive(t *testing.T, live *LiveProgressHandler, challengeID string) *websocket.Conn {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/live/{id}", live.Stream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live/"+challengeID+"?token=token-u1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveProgressPingsPassiveClients(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")

	// refreshes arrive slower than the server's read deadline
	live := NewLiveProgressHandler(context.Background(), api.challenges, tokenVerifier{}, 700*time.Millisecond)
	live.pongWait = 300 * time.Millisecond
	conn := dialLive(t, live, c.ID)

	pings := 0
	conn.SetPingHandler(func(data string) error {
		pings++
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for i := 0; i < 3; i++ {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg progressMessage
		require.NoError(t, conn.ReadJSON(&msg), "message %d", i)
		assert.Equal(t, "progress", msg.Action)
	}
	assert.Greater(t, pings, 1)
}

func TestLiveProgressClosesOnShutdown(t *testing.T) {
	api := newTestAPI(t)
	c := api.createChallenge(t, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live := NewLiveProgressHandler(ctx, api.challenges, tokenVerifier{}, time.Hour)
	conn := dialLive(t, live, c.ID)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg progressMessage
	require.NoError(t, conn.ReadJSON(&msg))

	cancel()
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
