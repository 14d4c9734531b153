package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/middleware"
	"fastingFriendsAPI/services"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
	maxMessageSize  = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type progressMessage struct {
	Action string                      `json:"action"`
	Data   *challenge.ProgressResponse `json:"data"`
}

// LiveProgressHandler streams challenge progress over a websocket. Browsers
// cannot set headers on the upgrade request, so the ID token comes in the
// token query parameter.
type LiveProgressHandler struct {
	// baseCtx outlives requests; cancelling it closes every open feed.
	baseCtx          context.Context
	challengeService *services.ChallengeService
	verifier         middleware.Verifier
	interval         time.Duration
	pongWait         time.Duration
}

func NewLiveProgressHandler(ctx context.Context, challengeService *services.ChallengeService, verifier middleware.Verifier, interval time.Duration) *LiveProgressHandler {
	return &LiveProgressHandler{
		baseCtx:          ctx,
		challengeService: challengeService,
		verifier:         verifier,
		interval:         interval,
		pongWait:         defaultPongWait,
	}
}

// GET /api/v1/challenges/{id}/live?token=
func (h *LiveProgressHandler) Stream(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusUnauthorized, "Query parameter 'token' is required")
		return
	}
	session, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	challengeID := mux.Vars(r)["id"]
	first, err := h.snapshot(r.Context(), challengeID)
	if err != nil {
		respondWithAppError(w, "LiveProgress", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("LiveProgress: could not upgrade connection: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("LiveProgress: %s watching %s", session.UserID, challengeID)

	if err := writeProgress(conn, first); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(h.baseCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, conn, challengeID)
	}()
	defer func() {
		cancel()
		<-done
	}()

	h.readPump(conn)
}

// writePump is the only writer once the first snapshot is out. It refreshes
// progress on the interval and pings often enough to keep the read deadline
// of a passive client alive.
func (h *LiveProgressHandler) writePump(ctx context.Context, conn *websocket.Conn, challengeID string) {
	refresh := time.NewTicker(h.interval)
	ping := time.NewTicker(h.pongWait * 9 / 10)
	defer func() {
		refresh.Stop()
		ping.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			if h.baseCtx.Err() != nil {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			}
			return

		case <-refresh.C:
			progress, err := h.snapshot(ctx, challengeID)
			if err != nil {
				log.Printf("LiveProgress: refresh failed for %s: %v", challengeID, err)
				continue
			}
			if err := writeProgress(conn, progress); err != nil {
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames get processed.
// It returns when the connection fails or goes quiet past pongWait.
func (h *LiveProgressHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}

func (h *LiveProgressHandler) snapshot(ctx context.Context, challengeID string) (*challenge.ProgressResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return h.challengeService.GetChallengeProgress(ctx, challengeID)
}

func writeProgress(conn *websocket.Conn, progress *challenge.ProgressResponse) error {
	data, err := json.Marshal(progressMessage{Action: "progress", Data: progress})
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
