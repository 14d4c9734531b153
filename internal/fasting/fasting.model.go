package fasting

import "time"

type Type string

const (
	SixteenEight Type = "16:8"
	OMAD         Type = "OMAD"
	LongFast     Type = "Long fast"
	FiveTwo      Type = "5:2"
)

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusBroken    Status = "broken"
)

// Record is one fast. It is written once when the fast starts and once more
// when it ends; after that it is immutable.
type Record struct {
	ID                   string     `json:"id" firestore:"-" db:"id"`
	UserID               string     `json:"userId" firestore:"userId" db:"user_id"`
	Date                 time.Time  `json:"date" firestore:"date" db:"date"`
	StartTime            time.Time  `json:"startTime" firestore:"startTime" db:"start_time"`
	TargetEndTime        time.Time  `json:"targetEndTime" firestore:"targetEndTime" db:"target_end_time"`
	ActualEndTime        *time.Time `json:"actualEndTime" firestore:"actualEndTime" db:"actual_end_time"`
	FastingType          Type       `json:"fastingType" firestore:"fastingType" db:"fasting_type"`
	TargetDuration       int        `json:"targetDuration" firestore:"targetDuration" db:"target_duration"`
	ActualDuration       int        `json:"actualDuration" firestore:"actualDuration" db:"actual_duration"`
	CompletionPercentage float64    `json:"completionPercentage" firestore:"completionPercentage" db:"completion_percentage"`
	Status               Status     `json:"status" firestore:"status" db:"status"`
	ChallengeID          *string    `json:"challengeId,omitempty" firestore:"challengeId" db:"challenge_id"`
	Notes                string     `json:"notes" firestore:"notes" db:"notes"`
}

// Stats summarises a user's fasting history for the profile screen.
type Stats struct {
	TotalFasts        int     `json:"totalFasts"`
	CompletedFasts    int     `json:"completedFasts"`
	BrokenFasts       int     `json:"brokenFasts"`
	AverageCompletion float64 `json:"averageCompletion"`
	TotalHoursFasted  float64 `json:"totalHoursFasted"`
	CurrentStreak     int     `json:"currentStreak"`
	LongestStreak     int     `json:"longestStreak"`
}
