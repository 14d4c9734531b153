package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fastingFriendsAPI/internal/weight"
	"fastingFriendsAPI/services"
)

type WeightHandler struct {
	weightService *services.WeightService
}

func NewWeightHandler(weightService *services.WeightService) *WeightHandler {
	return &WeightHandler{
		weightService: weightService,
	}
}

func (h *WeightHandler) AddWeight(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req weight.AddWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Please enter a valid weight")
		return
	}

	record, err := h.weightService.AddWeight(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "AddWeight", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

func (h *WeightHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	records, err := h.weightService.ListWeights(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetWeights", err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}
