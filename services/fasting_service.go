package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/utils"
)

const DefaultHistoryLimit = 7

const (
	triggerManual = "manual"
	triggerAuto   = "auto"
)

type FastingService struct {
	store      store.Store
	notifier   utils.NotificationCreator
	defaultLoc *time.Location
	now        func() time.Time
	async      func(func())
}

func NewFastingService(st store.Store, notifier utils.NotificationCreator, defaultLoc *time.Location) *FastingService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &FastingService{
		store:      st,
		notifier:   notifier,
		defaultLoc: defaultLoc,
		now:        time.Now,
		async:      func(f func()) { go f() },
	}
}

func (s *FastingService) currentFast(records []*fasting.Record) *fasting.Record {
	var current *fasting.Record
	for _, r := range records {
		if r.Status != fasting.StatusOngoing {
			continue
		}
		if current == nil || r.StartTime.After(current.StartTime) {
			current = r
		}
	}
	return current
}

// StartFast opens today's fast from the request or the user's preferences.
// The fast is attached to the user's challenge while that challenge runs.
func (s *FastingService) StartFast(ctx context.Context, userID string, req *fasting.StartFastRequest) (*fasting.Record, error) {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListFastingRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fasting records: %w", err)
	}
	if s.currentFast(records) != nil {
		return nil, apperr.Precondition(apperr.CodeFastInProgress, "You already have a fast in progress")
	}

	typ := profile.FastingPreferences.FastingType
	startClock := profile.FastingPreferences.StartTime
	if req != nil && req.FastingType != "" {
		typ = req.FastingType
	}
	if req != nil && req.StartTime != "" {
		startClock = req.StartTime
	}

	now := s.now()
	loc := profile.Location(s.defaultLoc)
	r, err := fasting.NewRecord(userID, typ, startClock, now, loc)
	if err != nil {
		return nil, err
	}

	if challengeID := s.runningChallenge(ctx, profile, now); challengeID != "" {
		r.ChallengeID = &challengeID
	}

	if err := s.store.CreateFastingRecord(ctx, r); err != nil {
		return nil, apperr.Write("start fast", err)
	}
	fastsStarted.WithLabelValues(string(r.FastingType)).Inc()
	return r, nil
}

// runningChallenge returns the user's challenge id when it has started and
// not yet ended.
func (s *FastingService) runningChallenge(ctx context.Context, profile *user.Profile, now time.Time) string {
	if !profile.InChallenge() {
		return ""
	}
	c, err := s.store.GetChallenge(ctx, *profile.ActiveChallengeID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			log.Printf("StartFast: failed to load challenge %s: %v", *profile.ActiveChallengeID, err)
		}
		return ""
	}
	if !c.Started(now) || c.Expired(now) {
		return ""
	}
	return c.ID
}

// EndFast closes the caller's fast now.
func (s *FastingService) EndFast(ctx context.Context, userID string, req *fasting.EndFastRequest) (*fasting.Record, error) {
	var r *fasting.Record
	if req.RecordID != "" {
		rec, err := s.store.GetFastingRecord(ctx, req.RecordID)
		if err != nil {
			return nil, err
		}
		if rec.UserID != userID {
			return nil, apperr.NotFound("fasting record", req.RecordID)
		}
		r = rec
	} else {
		records, err := s.store.ListFastingRecords(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list fasting records: %w", err)
		}
		if r = s.currentFast(records); r == nil {
			return nil, apperr.Precondition(apperr.CodeFastNotOngoing, "You have no fast in progress")
		}
	}

	if req.Notes != "" {
		r.Notes = req.Notes
	}
	if err := s.finish(ctx, r, triggerManual); err != nil {
		return nil, err
	}
	return r, nil
}

// finish runs the ongoing -> completed|broken transition, stores it and books
// the points on the attached challenge.
func (s *FastingService) finish(ctx context.Context, r *fasting.Record, trigger string) error {
	if err := fasting.Finish(r, s.now()); err != nil {
		return err
	}
	if err := s.store.FinishFastingRecord(ctx, r); err != nil {
		if apperr.HasCode(err, apperr.CodeFastNotOngoing) || apperr.IsNotFound(err) {
			return err
		}
		return apperr.Write("end fast", err)
	}
	fastsFinished.WithLabelValues(string(r.Status), trigger).Inc()

	if r.ChallengeID != nil {
		if err := s.accrueScore(ctx, *r.ChallengeID, r); err != nil {
			log.Printf("EndFast: failed to score record %s in challenge %s: %v", r.ID, *r.ChallengeID, err)
		}
	}

	if r.Status == fasting.StatusCompleted {
		done := *r
		s.notify(func() { utils.FastCompleted(s.notifier, &done) })
	}
	return nil
}

func (s *FastingService) notify(f func()) {
	if s.notifier == nil {
		return
	}
	s.async(f)
}

// accrueScore adds the record's points to the owner's standing and re-ranks
// every participant of the challenge.
func (s *FastingService) accrueScore(ctx context.Context, challengeID string, r *fasting.Record) error {
	p, err := s.store.GetParticipant(ctx, challengeID, r.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			// left the challenge while fasting
			return nil
		}
		return err
	}
	challenge.ApplyScore(p, r)
	if err := s.store.SaveParticipant(ctx, p); err != nil {
		return err
	}

	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return err
	}
	before := make(map[string]int, len(participants))
	for _, q := range participants {
		before[q.ID] = q.Rank
	}
	var errs []error
	for _, q := range challenge.Rank(participants) {
		if before[q.ID] == q.Rank {
			continue
		}
		if err := s.store.SaveParticipant(ctx, q); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetCurrentFast returns the ongoing fast with live progress, or nil.
func (s *FastingService) GetCurrentFast(ctx context.Context, userID string) (*fasting.CurrentFastResponse, error) {
	records, err := s.store.ListFastingRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fasting records: %w", err)
	}
	r := s.currentFast(records)
	if r == nil {
		return nil, nil
	}

	now := s.now()
	elapsed := now.Sub(r.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}

	endClock := fasting.NotApplicable
	if r.FastingType.AutoEnds() {
		profile, err := s.store.GetUser(ctx, userID)
		loc := s.defaultLoc
		if err == nil {
			loc = profile.Location(s.defaultLoc)
		}
		endClock = r.TargetEndTime.In(loc).Format("15:04")
	}

	return &fasting.CurrentFastResponse{
		Record:         r,
		Progress:       fasting.Progress(r.StartTime, r.TargetEndTime, now),
		ElapsedMinutes: int(elapsed / time.Minute),
		EndClock:       endClock,
		ComputedAt:     now,
	}, nil
}

// History returns the newest records first, limited to limit (default 7).
func (s *FastingService) History(ctx context.Context, userID string, limit int) ([]*fasting.Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records, err := s.store.ListFastingRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fasting records: %w", err)
	}
	fasting.SortByDateDesc(records)
	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []*fasting.Record{}
	}
	return records, nil
}

func (s *FastingService) Stats(ctx context.Context, userID string) (*fasting.Stats, error) {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListFastingRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fasting records: %w", err)
	}
	st := fasting.Summarize(records, s.now(), profile.Location(s.defaultLoc))
	return &st, nil
}

// AutoEndDue closes every ongoing fast that has reached its target end or
// whose local day has rolled over. Long fasts are left alone.
func (s *FastingService) AutoEndDue(ctx context.Context) (int, error) {
	ongoing, err := s.store.ListOngoingFasts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list ongoing fasts: %w", err)
	}

	now := s.now()
	locs := make(map[string]*time.Location)
	ended := 0
	for _, r := range ongoing {
		loc, ok := locs[r.UserID]
		if !ok {
			loc = s.defaultLoc
			if profile, err := s.store.GetUser(ctx, r.UserID); err == nil {
				loc = profile.Location(s.defaultLoc)
			}
			locs[r.UserID] = loc
		}
		if !fasting.ShouldAutoEnd(r, now, loc) {
			continue
		}
		if err := s.finish(ctx, r, triggerAuto); err != nil {
			// ended by its owner since the listing
			if apperr.HasCode(err, apperr.CodeFastNotOngoing) {
				continue
			}
			log.Printf("AutoEndDue: failed to end fast %s: %v", r.ID, err)
			continue
		}
		ended++
	}

	if ended > 0 {
		log.Printf("AutoEndDue: ended %d fasts", ended)
	}
	return ended, nil
}
