package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/services"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetFriends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req friendship.FriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f, err := h.friendService.SendFriendRequest(ctx, userID, req.FriendID)
	if err != nil {
		respondWithAppError(w, "AddFriend", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, f)
}

// PUT /api/v1/friends/requests/{id}/accept
func (h *FriendHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	f, err := h.friendService.AcceptFriendRequest(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, "AcceptFriend", err)
		return
	}

	respondWithJSON(w, http.StatusOK, f)
}

// DELETE /api/v1/friends/{friendId}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.friendService.RemoveFriend(ctx, userID, mux.Vars(r)["friendId"]); err != nil {
		respondWithAppError(w, "RemoveFriend", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}

func (h *FriendHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	board, err := h.friendService.FriendsLeaderboard(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetFriendsLeaderboard", err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
