package challenge

import (
	"time"

	"fastingFriendsAPI/internal/fasting"
)

type CreateChallengeRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	StartDate   string       `json:"startDate"` // YYYY-MM-DD
	EndDate     string       `json:"endDate"`   // YYYY-MM-DD
	FastingType fasting.Type `json:"fastingType"`
}

type JoinChallengeRequest struct {
	InviteCode  string `json:"inviteCode,omitempty"`
	ChallengeID string `json:"challengeId,omitempty"`
}

type JoinResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ChallengeID string `json:"challengeId"`
}

type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type ParticipantProgress struct {
	UserID        string  `json:"userId"`
	DisplayName   string  `json:"displayName"`
	TodayStatus   string  `json:"todayStatus"`
	TodayProgress float64 `json:"todayProgress"`
	TotalScore    int     `json:"totalScore"`
	CompletedDays int     `json:"completedDays"`
	Rank          int     `json:"rank"`
}

type ProgressResponse struct {
	Challenge    *Challenge             `json:"challenge"`
	StartsIn     *Countdown             `json:"startsIn,omitempty"`
	Participants []*ParticipantProgress `json:"participants"`
	ComputedAt   time.Time              `json:"computedAt"`
}

type SharingResponse struct {
	InviteCode   string `json:"inviteCode"`
	ShareLink    string `json:"shareLink"`
	WhatsAppLink string `json:"whatsAppLink"`
	QrCodeBase64 string `json:"qrCodeBase64"`
}

type PrefillResponse struct {
	InviteCode string `json:"inviteCode"`
	Valid      bool   `json:"valid"`
}
