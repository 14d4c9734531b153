package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetProfile", err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "UpdateProfile", err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.userService.UpdatePreferences(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "UpdatePreferences", err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// GET /api/v1/user/schedule - today's start and end clock from the preferences
func (h *UserHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	schedule, err := h.userService.GetSchedule(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetSchedule", err)
		return
	}

	respondWithJSON(w, http.StatusOK, schedule)
}

func (h *UserHandler) GetWeightGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goal, err := h.userService.GetWeightGoal(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetWeightGoal", err)
		return
	}

	respondWithJSON(w, http.StatusOK, goal)
}

func (h *UserHandler) UpdateWeightGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.WeightGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.userService.UpdateWeightGoal(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "UpdateWeightGoal", err)
		return
	}

	respondWithJSON(w, http.StatusOK, goal)
}
