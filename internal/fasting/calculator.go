package fasting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fastingFriendsAPI/internal/apperr"
)

// ErrNoFixedDuration is returned for fasting types whose end cannot be derived
// from a start clock alone.
var ErrNoFixedDuration = errors.New("fasting type has no fixed daily duration")

// NotApplicable is what clients show in place of an end clock for such types.
const NotApplicable = "N/A"

func (t Type) Valid() bool {
	switch t {
	case SixteenEight, OMAD, LongFast, FiveTwo:
		return true
	}
	return false
}

// AutoEnds reports whether fasts of this type are closed by the minute sweep.
func (t Type) AutoEnds() bool {
	return t != LongFast
}

func fixedHours(t Type) (int, error) {
	switch t {
	case SixteenEight:
		return 16, nil
	case OMAD:
		return 23, nil
	case LongFast, FiveTwo:
		return 0, ErrNoFixedDuration
	}
	return 0, apperr.Invalid("fastingType", fmt.Sprintf("unknown fasting type %q", t))
}

// TargetDuration is the length of a fast of type t. A long fast targets 24h
// but is never ended automatically.
func TargetDuration(t Type) (time.Duration, error) {
	if t == LongFast {
		return 24 * time.Hour, nil
	}
	h, err := fixedHours(t)
	if err != nil {
		return 0, err
	}
	return time.Duration(h) * time.Hour, nil
}

// ParseClock parses an "HH:MM" wall clock.
func ParseClock(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, apperr.Invalid("startTime", fmt.Sprintf("expected HH:MM, got %q", s))
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, apperr.Invalid("startTime", fmt.Sprintf("invalid hour in %q", s))
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, apperr.Invalid("startTime", fmt.Sprintf("invalid minute in %q", s))
	}
	return h, m, nil
}

// TargetEndClock adds the fixed duration of t to a start clock. Only the hour
// wraps (modulo 24); no date is carried, so the result is a wall clock.
func TargetEndClock(start string, t Type) (string, error) {
	h, m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	add, err := fixedHours(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", (h+add)%24, m), nil
}

// Progress is the elapsed share of [start, targetEnd] in percent, clamped to
// [0, 100]. An empty window counts as done once start is reached.
func Progress(start, targetEnd, now time.Time) float64 {
	window := targetEnd.Sub(start)
	if window <= 0 {
		if now.Before(start) {
			return 0
		}
		return 100
	}
	p := float64(now.Sub(start)) / float64(window) * 100
	return math.Max(0, math.Min(100, p))
}

// DayStart truncates t to midnight in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayStart(a, loc).Equal(DayStart(b, loc))
}

// NewRecord builds an ongoing fast for today, starting at startClock in loc.
func NewRecord(userID string, t Type, startClock string, now time.Time, loc *time.Location) (*Record, error) {
	if !t.Valid() {
		return nil, apperr.Invalid("fastingType", fmt.Sprintf("unknown fasting type %q", t))
	}
	if t == FiveTwo {
		return nil, apperr.Invalid("fastingType", "5:2 fasts are not tracked yet")
	}
	h, m, err := ParseClock(startClock)
	if err != nil {
		return nil, err
	}
	d, err := TargetDuration(t)
	if err != nil {
		return nil, err
	}

	today := DayStart(now, loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), h, m, 0, 0, loc)

	return &Record{
		UserID:         userID,
		Date:           today,
		StartTime:      start,
		TargetEndTime:  start.Add(d),
		FastingType:    t,
		TargetDuration: int(d / time.Minute),
		Status:         StatusOngoing,
	}, nil
}

// Finish closes an ongoing fast at now. Status only ever moves from ongoing to
// completed or broken.
func Finish(r *Record, now time.Time) error {
	if r.Status != StatusOngoing {
		return apperr.Precondition(apperr.CodeFastNotOngoing, fmt.Sprintf("fast is already %s", r.Status))
	}

	elapsed := now.Sub(r.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	target := r.TargetEndTime.Sub(r.StartTime)

	pct := 100.0
	if target > 0 {
		pct = math.Min(100, float64(elapsed)/float64(target)*100)
	}

	end := now
	r.ActualEndTime = &end
	r.ActualDuration = int(elapsed / time.Minute)
	r.CompletionPercentage = pct
	if pct >= 100 {
		r.Status = StatusCompleted
	} else {
		r.Status = StatusBroken
	}
	return nil
}

// ShouldAutoEnd reports whether the sweep must close r: the target end has
// passed or the local calendar day has rolled over, whichever comes first.
func ShouldAutoEnd(r *Record, now time.Time, loc *time.Location) bool {
	if r.Status != StatusOngoing || !r.FastingType.AutoEnds() {
		return false
	}
	if !now.Before(r.TargetEndTime) {
		return true
	}
	return DayStart(now, loc).After(DayStart(r.Date, loc))
}
