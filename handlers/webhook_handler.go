package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/services"
)

const (
	maxWebhookBytes  = int64(65536)
	webhookTolerance = 5 * time.Minute
)

type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clerkPhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

type clerkUser struct {
	ID                   string             `json:"id"`
	FirstName            string             `json:"first_name"`
	LastName             string             `json:"last_name"`
	Username             string             `json:"username"`
	ImageURL             string             `json:"image_url"`
	PrimaryPhoneNumberID string             `json:"primary_phone_number_id"`
	PhoneNumbers         []clerkPhoneNumber `json:"phone_numbers"`
}

func (u *clerkUser) phoneNumber() string {
	for _, p := range u.PhoneNumbers {
		if p.ID == u.PrimaryPhoneNumberID {
			return p.PhoneNumber
		}
	}
	if len(u.PhoneNumbers) > 0 {
		return u.PhoneNumbers[0].PhoneNumber
	}
	return ""
}

func (u *clerkUser) displayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// WebhookHandler provisions profiles from Clerk user events when Clerk is the
// auth provider, so a profile exists before the first API call.
type WebhookHandler struct {
	userService *services.UserService
	secret      []byte
	now         func() time.Time
}

// NewWebhookHandler takes the Clerk signing secret in its "whsec_<base64>" form.
func NewWebhookHandler(userService *services.UserService, secret string) (*WebhookHandler, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &WebhookHandler{userService: userService, secret: key, now: time.Now}, nil
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("HandleClerkWebhook: error reading body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if !h.verifySignature(r.Header, body) {
		log.Println("HandleClerkWebhook: invalid signature")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch event.Type {
	case "user.created", "user.updated":
		err = h.syncUser(ctx, event.Data)
	default:
		// user.deleted included: profiles and fasting history are kept
		log.Printf("HandleClerkWebhook: ignoring event %s", event.Type)
	}
	if err != nil {
		log.Printf("HandleClerkWebhook: %s: %v", event.Type, err)
		respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) syncUser(ctx context.Context, data json.RawMessage) error {
	var u clerkUser
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if u.ID == "" {
		return fmt.Errorf("user event without id")
	}

	if _, err := h.userService.EnsureProfile(ctx, u.ID, u.phoneNumber()); err != nil {
		return err
	}
	return h.applyClerkFields(ctx, &u)
}

func (h *WebhookHandler) applyClerkFields(ctx context.Context, u *clerkUser) error {
	req := &user.UpdateProfileRequest{PhotoURL: u.ImageURL}
	if name := u.displayName(); len(name) <= 50 {
		req.DisplayName = name
	}
	if req.DisplayName == "" && req.PhotoURL == "" {
		return nil
	}
	_, err := h.userService.UpdateProfile(ctx, u.ID, req)
	return err
}

// verifySignature checks the svix headers Clerk signs deliveries with: an
// HMAC-SHA256 over "id.timestamp.body", sent as one or more "v1,<base64>".
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) bool {
	id := header.Get("svix-id")
	ts := header.Get("svix-timestamp")
	sigs := header.Get("svix-signature")
	if id == "" || ts == "" || sigs == "" {
		return false
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	if d := h.now().Sub(time.Unix(sec, 0)); d > webhookTolerance || d < -webhookTolerance {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(id + "." + ts + "." + string(body)))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(sigs) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return true
		}
	}
	return false
}
