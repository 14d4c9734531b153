package weight

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"fastingFriendsAPI/internal/apperr"
)

// Record is a single weigh-in. It is never edited after it is written.
type Record struct {
	ID     string    `json:"id" firestore:"-" db:"id"`
	UserID string    `json:"userId" firestore:"userId" db:"user_id"`
	Weight float64   `json:"weight" firestore:"weight" db:"weight"`
	Date   time.Time `json:"date" firestore:"date" db:"date"`
}

type AddWeightRequest struct {
	// Weight is the raw form input; it is parsed and validated by Parse.
	Weight string `json:"weight"`
}

// Parse validates a user supplied weight.
func Parse(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperr.Invalid("weight", "Please enter a valid weight")
	}
	return Validate(v)
}

func Validate(v float64) (float64, error) {
	if v <= 0 || v > 1000 {
		return 0, apperr.Invalid("weight", "Please enter a valid weight")
	}
	return v, nil
}

// SortByDate orders records oldest first for charting.
func SortByDate(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
