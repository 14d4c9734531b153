package challenge

import (
	"time"

	"fastingFriendsAPI/internal/fasting"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

type Challenge struct {
	ID           string       `json:"id" firestore:"-" db:"id"`
	Name         string       `json:"name" firestore:"name" db:"name"`
	Description  string       `json:"description" firestore:"description" db:"description"`
	CreatorID    string       `json:"creatorId" firestore:"creatorId" db:"creator_id"`
	StartDate    time.Time    `json:"startDate" firestore:"startDate" db:"start_date"`
	EndDate      time.Time    `json:"endDate" firestore:"endDate" db:"end_date"`
	FastingType  fasting.Type `json:"fastingType" firestore:"fastingType" db:"fasting_type"`
	Participants []string     `json:"participants" firestore:"participants" db:"participants"`
	Status       Status       `json:"status" firestore:"status" db:"status"`
	InviteCode   string       `json:"inviteCode" firestore:"inviteCode" db:"invite_code"`
	IsPublic     bool         `json:"isPublic" firestore:"isPublic" db:"is_public"`
	CreatedAt    time.Time    `json:"createdAt" firestore:"createdAt" db:"created_at"`
}

func (c *Challenge) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Expired treats a passed end date as expired even before the sweep flips the status.
func (c *Challenge) Expired(now time.Time) bool {
	return c.Status == StatusExpired || now.After(c.EndDate)
}

func (c *Challenge) Started(now time.Time) bool {
	return !now.Before(c.StartDate)
}

type DailyScore struct {
	Date                 time.Time      `json:"date" firestore:"date"`
	RecordID             string         `json:"recordId" firestore:"recordId"`
	Points               int            `json:"points" firestore:"points"`
	CompletionPercentage float64        `json:"completionPercentage" firestore:"completionPercentage"`
	Status               fasting.Status `json:"status" firestore:"status"`
}

// Participant is one user's standing in one challenge. It is deleted when the
// user leaves.
type Participant struct {
	ID            string       `json:"id" firestore:"-" db:"id"`
	ChallengeID   string       `json:"challengeId" firestore:"challengeId" db:"challenge_id"`
	UserID        string       `json:"userId" firestore:"userId" db:"user_id"`
	JoinedAt      time.Time    `json:"joinedAt" firestore:"joinedAt" db:"joined_at"`
	DailyScores   []DailyScore `json:"dailyScores" firestore:"dailyScores" db:"daily_scores"`
	TotalScore    int          `json:"totalScore" firestore:"totalScore" db:"total_score"`
	CompletedDays int          `json:"completedDays" firestore:"completedDays" db:"completed_days"`
	Rank          int          `json:"rank" firestore:"rank" db:"rank"`
}
