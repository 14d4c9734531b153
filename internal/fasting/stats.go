package fasting

import (
	"sort"
	"time"
)

// SortByDateDesc orders records newest first. The store has no index for this,
// so history is sorted after fetch.
func SortByDateDesc(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date.Equal(records[j].Date) {
			return records[i].StartTime.After(records[j].StartTime)
		}
		return records[i].Date.After(records[j].Date)
	})
}

// Summarize computes profile statistics. Streaks count consecutive local days
// with at least one completed fast; the current streak may end yesterday when
// today has no completed fast yet.
func Summarize(records []*Record, now time.Time, loc *time.Location) Stats {
	var s Stats
	completedDays := make(map[time.Time]bool)
	var finished int
	var completionSum float64

	for _, r := range records {
		s.TotalFasts++
		switch r.Status {
		case StatusCompleted:
			s.CompletedFasts++
			completedDays[DayStart(r.Date, loc)] = true
		case StatusBroken:
			s.BrokenFasts++
		}
		if r.Status != StatusOngoing {
			finished++
			completionSum += r.CompletionPercentage
			s.TotalHoursFasted += float64(r.ActualDuration) / 60
		}
	}
	if finished > 0 {
		s.AverageCompletion = completionSum / float64(finished)
	}

	days := make([]time.Time, 0, len(completedDays))
	for d := range completedDays {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 0
	for i, d := range days {
		if i > 0 && prevDay(d, loc).Equal(days[i-1]) {
			run++
		} else {
			run = 1
		}
		if run > s.LongestStreak {
			s.LongestStreak = run
		}
	}

	day := DayStart(now, loc)
	if !completedDays[day] {
		day = prevDay(day, loc)
	}
	for completedDays[day] {
		s.CurrentStreak++
		day = prevDay(day, loc)
	}

	return s
}

func prevDay(d time.Time, loc *time.Location) time.Time {
	return DayStart(d.AddDate(0, 0, -1), loc)
}
