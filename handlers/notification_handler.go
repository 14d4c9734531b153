package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /api/v1/notifications - Get user's notifications
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	response, err := h.notificationService.GetNotifications(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetNotifications", err)
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// GET /api/v1/notifications/unread-count - Get unread count
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(ctx, userID)
	if err != nil {
		respondWithAppError(w, "GetUnreadCount", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

// PUT /api/v1/notifications/{id}/read - Mark notification as read
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(ctx, userID, mux.Vars(r)["id"]); err != nil {
		respondWithAppError(w, "MarkAsRead", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// POST /api/v1/notifications/register-device - Register device for push
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.notificationService.RegisterDevice(ctx, userID, &req); err != nil {
		respondWithAppError(w, "RegisterDevice", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}

// PUT /api/v1/notifications/preferences - Replace push preferences
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, "UpdatePreferences", err)
		return
	}

	respondWithJSON(w, http.StatusOK, prefs)
}
