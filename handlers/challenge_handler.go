package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req challenge.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.challengeService.CreateChallenge(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "CreateChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

// POST /api/v1/challenges/join - by invite code or challenge id
func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req challenge.JoinChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		res *challenge.JoinResult
		err error
	)
	switch {
	case req.InviteCode != "":
		res, err = h.challengeService.JoinByInviteCode(ctx, userID, req.InviteCode)
	case req.ChallengeID != "":
		res, err = h.challengeService.JoinChallenge(ctx, userID, req.ChallengeID)
	default:
		respondWithError(w, http.StatusBadRequest, "inviteCode or challengeId is required")
		return
	}
	if err != nil {
		respondWithAppError(w, "JoinChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

// GET /join-challenge?code=ABC123 - public, lets the join form prefill the code
func (h *ChallengeHandler) PrefillJoin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	raw := r.URL.Query().Get("code")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'code' is required")
		return
	}

	code, err := challenge.ParseShareLink(raw)
	if err != nil {
		respondWithJSON(w, http.StatusOK, challenge.PrefillResponse{InviteCode: raw, Valid: false})
		return
	}

	_, err = h.challengeService.FindByInviteCode(ctx, code)
	respondWithJSON(w, http.StatusOK, challenge.PrefillResponse{InviteCode: code, Valid: err == nil})
}

// GET /api/v1/challenges/active - null when the user is not in a running challenge
func (h *ChallengeHandler) GetActiveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	c, err := h.challengeService.GetActiveChallenge(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetActiveChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"challenge": c})
}

func (h *ChallengeHandler) LeaveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.challengeService.LeaveChallenge(ctx, userID); err != nil {
		respondWithAppError(w, "LeaveChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Left challenge"})
}

func (h *ChallengeHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	progress, err := h.challengeService.GetChallengeProgress(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, "GetProgress", err)
		return
	}

	respondWithJSON(w, http.StatusOK, progress)
}

func (h *ChallengeHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	board, err := h.challengeService.GetLeaderboard(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, "GetLeaderboard", err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *ChallengeHandler) GetSharing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	share, err := h.challengeService.GetSharing(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, "GetSharing", err)
		return
	}

	respondWithJSON(w, http.StatusOK, share)
}
