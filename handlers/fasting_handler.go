package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/services"
)

type FastingHandler struct {
	fastingService *services.FastingService
}

func NewFastingHandler(fastingService *services.FastingService) *FastingHandler {
	return &FastingHandler{
		fastingService: fastingService,
	}
}

// POST /api/v1/fasts/start - body is optional, preferences fill the gaps
func (h *FastingHandler) StartFast(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req fasting.StartFastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.fastingService.StartFast(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "StartFast", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

// POST /api/v1/fasts/end - ends the given record, or the current fast
func (h *FastingHandler) EndFast(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req fasting.EndFastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.fastingService.EndFast(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "EndFast", err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *FastingHandler) GetCurrentFast(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	current, err := h.fastingService.GetCurrentFast(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetCurrentFast", err)
		return
	}
	if current == nil {
		respondWithJSON(w, http.StatusOK, map[string]any{"record": nil})
		return
	}

	respondWithJSON(w, http.StatusOK, current)
}

// GET /api/v1/fasts/history?limit=7
func (h *FastingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}

	records, err := h.fastingService.History(ctx, userID, limit)
	if err != nil {
		respondWithAppError(w, "GetHistory", err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

func (h *FastingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.fastingService.Stats(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetStats", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
