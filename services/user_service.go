package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/internal/weight"
)

type UserService struct {
	store      store.Store
	defaultLoc *time.Location
	now        func() time.Time
}

func NewUserService(st store.Store, defaultLoc *time.Location) *UserService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &UserService{
		store:      st,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// EnsureProfile returns the caller's profile, creating it on first sign-in.
func (s *UserService) EnsureProfile(ctx context.Context, userID, phoneNumber string) (*user.Profile, error) {
	p, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	p = user.New(userID, phoneNumber, s.defaultLoc.String(), s.now())
	if err := s.store.SaveUser(ctx, p); err != nil {
		return nil, apperr.Write("create user", err)
	}
	log.Printf("EnsureProfile: created profile for %s", userID)
	return p, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*user.Profile, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.Profile, error) {
	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		if len(name) > 50 {
			return nil, apperr.Invalid("displayName", "display name must be at most 50 characters")
		}
		p.DisplayName = name
	}
	if req.PhotoURL != "" {
		p.PhotoURL = req.PhotoURL
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, apperr.Invalid("timezone", fmt.Sprintf("unknown timezone %q", req.Timezone))
		}
		p.Timezone = req.Timezone
	}
	p.LastActive = s.now()

	if err := s.store.SaveUser(ctx, p); err != nil {
		return nil, apperr.Write("update profile", err)
	}
	return p, nil
}

// UpdatePreferences stores the fasting type and daily start clock. 5:2 may be
// chosen as a preference even though it cannot be started as a tracked fast.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, req *user.UpdatePreferencesRequest) (*user.Profile, error) {
	if !req.FastingType.Valid() {
		return nil, apperr.Invalid("fastingType", fmt.Sprintf("unknown fasting type %q", req.FastingType))
	}
	if _, _, err := fasting.ParseClock(req.StartTime); err != nil {
		return nil, err
	}

	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.FastingPreferences = user.FastingPreferences{
		FastingType: req.FastingType,
		StartTime:   strings.TrimSpace(req.StartTime),
	}
	if err := s.store.SaveUser(ctx, p); err != nil {
		return nil, apperr.Write("update preferences", err)
	}
	return p, nil
}

// GetSchedule derives today's end clock from the stored preferences.
func (s *UserService) GetSchedule(ctx context.Context, userID string) (*fasting.EndTimeResponse, error) {
	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := p.FastingPreferences
	end, err := fasting.TargetEndClock(prefs.StartTime, prefs.FastingType)
	if err != nil {
		if !errors.Is(err, fasting.ErrNoFixedDuration) {
			return nil, err
		}
		end = fasting.NotApplicable
	}
	return &fasting.EndTimeResponse{
		StartTime:   prefs.StartTime,
		FastingType: prefs.FastingType,
		EndTime:     end,
	}, nil
}

func (s *UserService) GetWeightGoal(ctx context.Context, userID string) (*user.WeightGoalResponse, error) {
	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.WeightGoalResponse{WeightGoal: p.WeightGoal}, nil
}

func (s *UserService) UpdateWeightGoal(ctx context.Context, userID string, req *user.WeightGoalRequest) (*user.WeightGoalResponse, error) {
	goal, err := weight.Validate(req.WeightGoal)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.WeightGoal = &goal
	if err := s.store.SaveUser(ctx, p); err != nil {
		return nil, apperr.Write("update weight goal", err)
	}
	return &user.WeightGoalResponse{WeightGoal: p.WeightGoal}, nil
}
