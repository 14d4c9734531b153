package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Set bundles the handlers served by the API.
type Set struct {
	Users         *UserHandler
	Fasts         *FastingHandler
	Challenges    *ChallengeHandler
	Friends       *FriendHandler
	Weights       *WeightHandler
	Notifications *NotificationHandler
	// Webhooks is optional; nil leaves /webhooks/clerk unmounted.
	Webhooks *WebhookHandler
}

// Register mounts the public join page and the /api/v1 routes on r. auth
// guards every /api/v1 route.
func (s *Set) Register(r *mux.Router, auth func(http.Handler) http.Handler) {
	r.HandleFunc("/join-challenge", s.Challenges.PrefillJoin).Methods("GET")
	if s.Webhooks != nil {
		r.HandleFunc("/webhooks/clerk", s.Webhooks.HandleClerkWebhook).Methods("POST")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth)

	api.HandleFunc("/user/profile", s.Users.GetProfile).Methods("GET")
	api.HandleFunc("/user/profile", s.Users.UpdateProfile).Methods("PUT")
	api.HandleFunc("/user/preferences", s.Users.UpdatePreferences).Methods("PUT")
	api.HandleFunc("/user/schedule", s.Users.GetSchedule).Methods("GET")
	api.HandleFunc("/user/weight-goal", s.Users.GetWeightGoal).Methods("GET")
	api.HandleFunc("/user/weight-goal", s.Users.UpdateWeightGoal).Methods("PUT")

	api.HandleFunc("/fasts/start", s.Fasts.StartFast).Methods("POST")
	api.HandleFunc("/fasts/end", s.Fasts.EndFast).Methods("POST")
	api.HandleFunc("/fasts/current", s.Fasts.GetCurrentFast).Methods("GET")
	api.HandleFunc("/fasts/history", s.Fasts.GetHistory).Methods("GET")
	api.HandleFunc("/fasts/stats", s.Fasts.GetStats).Methods("GET")

	api.HandleFunc("/challenges", s.Challenges.CreateChallenge).Methods("POST")
	api.HandleFunc("/challenges/join", s.Challenges.JoinChallenge).Methods("POST")
	api.HandleFunc("/challenges/active", s.Challenges.GetActiveChallenge).Methods("GET")
	api.HandleFunc("/challenges/leave", s.Challenges.LeaveChallenge).Methods("POST")
	api.HandleFunc("/challenges/{id}/progress", s.Challenges.GetProgress).Methods("GET")
	api.HandleFunc("/challenges/{id}/leaderboard", s.Challenges.GetLeaderboard).Methods("GET")
	api.HandleFunc("/challenges/{id}/share", s.Challenges.GetSharing).Methods("GET")

	api.HandleFunc("/friends", s.Friends.GetFriends).Methods("GET")
	api.HandleFunc("/friends", s.Friends.AddFriend).Methods("POST")
	api.HandleFunc("/friends/leaderboard", s.Friends.GetLeaderboard).Methods("GET")
	api.HandleFunc("/friends/requests/{id}/accept", s.Friends.AcceptFriend).Methods("PUT")
	api.HandleFunc("/friends/{friendId}", s.Friends.RemoveFriend).Methods("DELETE")

	api.HandleFunc("/weights", s.Weights.GetWeights).Methods("GET")
	api.HandleFunc("/weights", s.Weights.AddWeight).Methods("POST")

	api.HandleFunc("/notifications", s.Notifications.GetNotifications).Methods("GET")
	api.HandleFunc("/notifications/unread-count", s.Notifications.GetUnreadCount).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", s.Notifications.MarkAsRead).Methods("PUT")
	api.HandleFunc("/notifications/register-device", s.Notifications.RegisterDevice).Methods("POST")
	api.HandleFunc("/notifications/preferences", s.Notifications.UpdatePreferences).Methods("PUT")
}
