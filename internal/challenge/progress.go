package challenge

import (
	"math"
	"sort"
	"time"

	"fastingFriendsAPI/internal/fasting"
)

// Today's status texts shown next to each participant.
const (
	TodayNotStarted = "Not started"
	TodayFasting    = "Fasting"
	TodayCompleted  = "Completed"
	TodayBroken     = "Broken"
)

const CompletedFastPoints = 10

// Points awarded for a finished fast: a flat 10 for a completed fast and
// floor(completion/20) for a broken one. Nothing else scores.
func Points(r *fasting.Record) int {
	switch r.Status {
	case fasting.StatusCompleted:
		return CompletedFastPoints
	case fasting.StatusBroken:
		return int(math.Floor(r.CompletionPercentage / 20))
	}
	return 0
}

// ApplyScore books a finished fast onto p.
func ApplyScore(p *Participant, r *fasting.Record) int {
	pts := Points(r)
	p.DailyScores = append(p.DailyScores, DailyScore{
		Date:                 r.Date,
		RecordID:             r.ID,
		Points:               pts,
		CompletionPercentage: r.CompletionPercentage,
		Status:               r.Status,
	})
	p.TotalScore += pts
	if r.Status == fasting.StatusCompleted {
		p.CompletedDays++
	}
	return pts
}

// Rank sorts participants by total score, highest first, and numbers them
// 1..n. The sort is stable: ties keep their input order and get distinct ranks.
func Rank(participants []*Participant) []*Participant {
	ranked := make([]*Participant, len(participants))
	copy(ranked, participants)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	for i, p := range ranked {
		p.Rank = i + 1
	}
	return ranked
}

// TodayRecord finds the record dated today (local midnight match).
func TodayRecord(records []*fasting.Record, now time.Time, loc *time.Location) *fasting.Record {
	today := fasting.DayStart(now, loc)
	var found *fasting.Record
	for _, r := range records {
		if !fasting.DayStart(r.Date, loc).Equal(today) {
			continue
		}
		if found == nil || r.StartTime.After(found.StartTime) {
			found = r
		}
	}
	return found
}

// TodayStatus derives the status text and progress for one participant.
func TodayStatus(r *fasting.Record, now time.Time) (string, float64) {
	if r == nil {
		return TodayNotStarted, 0
	}
	switch r.Status {
	case fasting.StatusCompleted:
		return TodayCompleted, 100
	case fasting.StatusBroken:
		return TodayBroken, r.CompletionPercentage
	default:
		return TodayFasting, fasting.Progress(r.StartTime, r.TargetEndTime, now)
	}
}

// BuildProgress assembles the ranked progress view of a challenge. Each
// participant's "today" is taken in their own location from locs, or in
// fallback when they have none.
func BuildProgress(participants []*Participant, names map[string]string, recordsByUser map[string][]*fasting.Record, locs map[string]*time.Location, now time.Time, fallback *time.Location) []*ParticipantProgress {
	ranked := Rank(participants)
	out := make([]*ParticipantProgress, 0, len(ranked))
	for _, p := range ranked {
		loc := locs[p.UserID]
		if loc == nil {
			loc = fallback
		}
		status, progress := TodayStatus(TodayRecord(recordsByUser[p.UserID], now, loc), now)
		out = append(out, &ParticipantProgress{
			UserID:        p.UserID,
			DisplayName:   names[p.UserID],
			TodayStatus:   status,
			TodayProgress: progress,
			TotalScore:    p.TotalScore,
			CompletedDays: p.CompletedDays,
			Rank:          p.Rank,
		})
	}
	return out
}

// CountdownTo splits the time left until start. Nil once started.
func CountdownTo(start, now time.Time) *Countdown {
	d := start.Sub(now)
	if d <= 0 {
		return nil
	}
	total := int(d / time.Second)
	return &Countdown{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}
