package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/middleware"
)

const requestTimeout = 5 * time.Second

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError maps the error taxonomy onto a status code. Unexpected
// errors are logged and hidden from the client.
func respondWithAppError(w http.ResponseWriter, op string, err error) {
	code := apperr.HTTPStatus(err)
	if code == http.StatusInternalServerError {
		log.Printf("%s: %v", op, err)
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	}
	return userID, ok
}
