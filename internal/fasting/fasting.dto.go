package fasting

import "time"

type StartFastRequest struct {
	FastingType Type   `json:"fastingType,omitempty"`
	StartTime   string `json:"startTime,omitempty"` // HH:MM, defaults to the user's preference
}

type EndFastRequest struct {
	RecordID string `json:"recordId"`
	Notes    string `json:"notes,omitempty"`
}

// CurrentFastResponse is the live view of a fast: the stored record plus the
// values derived from the clock at request time.
type CurrentFastResponse struct {
	Record         *Record   `json:"record"`
	Progress       float64   `json:"progress"`
	ElapsedMinutes int       `json:"elapsedMinutes"`
	EndClock       string    `json:"endClock"`
	ComputedAt     time.Time `json:"computedAt"`
}

type EndTimeResponse struct {
	StartTime   string `json:"startTime"`
	FastingType Type   `json:"fastingType"`
	EndTime     string `json:"endTime"`
}
