package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"fastingFriendsAPI/internal/user"
)

type contextKey string

const SessionKey contextKey = "session"

// Session is the authenticated caller.
type Session struct {
	UserID      string
	PhoneNumber string
}

// Verifier turns a bearer token into a Session.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// FirebaseVerifier checks Firebase ID tokens issued after phone sign-in.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Session, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	phone, _ := t.Claims["phone_number"].(string)
	return &Session{UserID: t.UID, PhoneNumber: phone}, nil
}

// ClerkVerifier checks Clerk session JWTs. clerk.SetKey must be called first.
type ClerkVerifier struct{}

func (ClerkVerifier) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return nil, err
	}
	return &Session{UserID: claims.Subject}, nil
}

// ProfileEnsurer creates the caller's profile on first sign-in.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID, phoneNumber string) (*user.Profile, error)
}

// AuthMiddleware validates the bearer token and puts the Session in the
// request context. When profiles is set, the caller's profile is created if
// it does not exist yet.
func AuthMiddleware(verifier Verifier, profiles ProfileEnsurer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
				return
			}

			session, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Printf("Token verification failed: %v", err)
				respondWithError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
				return
			}

			if profiles != nil {
				if _, err := profiles.EnsureProfile(r.Context(), session.UserID, session.PhoneNumber); err != nil {
					log.Printf("AuthMiddleware: failed to ensure profile for %s: %v", session.UserID, err)
					respondWithError(w, http.StatusInternalServerError, "Failed to load user profile")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetSession extracts the authenticated caller from context
func GetSession(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionKey).(*Session)
	return s, ok && s != nil
}

// GetUserID extracts the caller's user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	s, ok := GetSession(ctx)
	if !ok {
		return "", false
	}
	return s.UserID, true
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
