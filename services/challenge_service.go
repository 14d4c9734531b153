package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/utils"
)

const (
	MsgAlreadyParticipant = "Already a participant"
	MsgJoined             = "Successfully joined challenge"

	dateLayout = "2006-01-02"
)

type ChallengeService struct {
	store      store.Store
	notifier   utils.NotificationCreator
	baseURL    string
	defaultLoc *time.Location
	now        func() time.Time
	async      func(func())
}

func NewChallengeService(st store.Store, notifier utils.NotificationCreator, baseURL string, defaultLoc *time.Location) *ChallengeService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &ChallengeService{
		store:      st,
		notifier:   notifier,
		baseURL:    baseURL,
		defaultLoc: defaultLoc,
		now:        time.Now,
		async:      func(f func()) { go f() },
	}
}

func (s *ChallengeService) notify(f func()) {
	if s.notifier == nil {
		return
	}
	s.async(f)
}

// CreateChallenge opens a challenge with the creator as its first participant.
func (s *ChallengeService) CreateChallenge(ctx context.Context, userID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" || req.StartDate == "" || req.EndDate == "" || req.FastingType == "" {
		return nil, apperr.Invalid("challenge", "Please fill in all required fields")
	}
	if !req.FastingType.Valid() {
		return nil, apperr.Invalid("fastingType", fmt.Sprintf("unknown fasting type %q", req.FastingType))
	}

	creator, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := creator.Location(s.defaultLoc)

	start, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
	if err != nil {
		return nil, apperr.Invalid("startDate", "start date must be YYYY-MM-DD")
	}
	endDay, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
	if err != nil {
		return nil, apperr.Invalid("endDate", "end date must be YYYY-MM-DD")
	}
	if endDay.Before(start) {
		return nil, apperr.Invalid("endDate", "End date must be after start date")
	}
	// the end day is included in full
	end := endDay.AddDate(0, 0, 1)

	if creator.InChallenge() {
		return nil, apperr.AlreadyInChallenge()
	}

	now := s.now()
	c := &challenge.Challenge{
		Name:         name,
		Description:  description,
		CreatorID:    userID,
		StartDate:    start,
		EndDate:      end,
		FastingType:  req.FastingType,
		Participants: []string{userID},
		Status:       challenge.StatusActive,
		InviteCode:   challenge.NewInviteCode(),
		IsPublic:     true,
		CreatedAt:    now,
	}
	if err := s.store.CreateChallenge(ctx, c); err != nil {
		return nil, apperr.Write("create challenge", err)
	}

	p := &challenge.Participant{
		ChallengeID: c.ID,
		UserID:      userID,
		JoinedAt:    now,
		DailyScores: []challenge.DailyScore{},
		Rank:        1,
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, apperr.Write("create challenge participant", err)
	}
	if err := s.store.SetUserChallenge(ctx, userID, &c.ID, user.StateActive); err != nil {
		return nil, apperr.Write("set active challenge", err)
	}

	log.Printf("CreateChallenge: %s created %q (%s)", userID, c.Name, c.ID)
	return c, nil
}

// JoinChallenge adds the user to a challenge. The three writes (participant
// list, participant record, user pointer) are not atomic; a failed step
// restores the participant list. A participant record written before a failed
// pointer update is left in place.
func (s *ChallengeService) JoinChallenge(ctx context.Context, userID, challengeID string) (*challenge.JoinResult, error) {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		challengeJoins.WithLabelValues("error").Inc()
		return nil, err
	}
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		challengeJoins.WithLabelValues("error").Inc()
		return nil, err
	}

	if c.HasParticipant(userID) {
		challengeJoins.WithLabelValues("already_participant").Inc()
		return &challenge.JoinResult{Success: true, Message: MsgAlreadyParticipant, ChallengeID: c.ID}, nil
	}
	if c.Expired(s.now()) {
		challengeJoins.WithLabelValues("expired").Inc()
		return nil, apperr.ChallengeExpired()
	}
	if profile.InChallenge() {
		challengeJoins.WithLabelValues("already_in_challenge").Inc()
		return nil, apperr.AlreadyInChallenge()
	}

	original := append([]string(nil), c.Participants...)
	updated := append(append([]string(nil), original...), userID)

	join := &saga{
		name: "JoinChallenge",
		steps: []sagaStep{
			{
				name: "add to participant list",
				do: func(ctx context.Context) error {
					return s.store.UpdateChallengeParticipants(ctx, c.ID, updated)
				},
				compensate: func(ctx context.Context) error {
					return s.store.UpdateChallengeParticipants(ctx, c.ID, original)
				},
			},
			{
				name: "create challenge participant",
				do: func(ctx context.Context) error {
					return s.store.CreateParticipant(ctx, &challenge.Participant{
						ChallengeID: c.ID,
						UserID:      userID,
						JoinedAt:    s.now(),
						DailyScores: []challenge.DailyScore{},
						Rank:        len(original) + 1,
					})
				},
			},
			{
				name: "set active challenge",
				do: func(ctx context.Context) error {
					return s.store.SetUserChallenge(ctx, userID, &c.ID, user.StateActive)
				},
			},
		},
	}
	if err := join.run(ctx); err != nil {
		challengeJoins.WithLabelValues("failed").Inc()
		return nil, err
	}

	challengeJoins.WithLabelValues("joined").Inc()
	c.Participants = updated
	joinerName := profile.DisplayName
	s.notify(func() { utils.ChallengeJoined(s.notifier, c, userID, joinerName) })

	return &challenge.JoinResult{Success: true, Message: MsgJoined, ChallengeID: c.ID}, nil
}

// FindByInviteCode resolves a code, preferring an active challenge when
// several share it.
func (s *ChallengeService) FindByInviteCode(ctx context.Context, rawCode string) (*challenge.Challenge, error) {
	code, err := challenge.NormalizeInviteCode(rawCode)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.FindChallengesByInviteCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}
	if len(matches) == 0 {
		return nil, apperr.InvalidInviteCode(rawCode)
	}
	now := s.now()
	for _, c := range matches {
		if !c.Expired(now) {
			return c, nil
		}
	}
	return matches[0], nil
}

func (s *ChallengeService) JoinByInviteCode(ctx context.Context, userID, code string) (*challenge.JoinResult, error) {
	c, err := s.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.JoinChallenge(ctx, userID, c.ID)
}

// GetActiveChallenge returns the user's current challenge. A pointer to a
// missing or expired challenge is cleared and the user becomes inactive.
func (s *ChallengeService) GetActiveChallenge(ctx context.Context, userID string) (*challenge.Challenge, error) {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.InChallenge() {
		return nil, nil
	}

	c, err := s.store.GetChallenge(ctx, *profile.ActiveChallengeID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if c != nil && !c.Expired(s.now()) {
		return c, nil
	}

	if err := s.store.SetUserChallenge(ctx, userID, nil, user.StateInactive); err != nil {
		return nil, apperr.Write("clear active challenge", err)
	}
	return nil, nil
}

func (s *ChallengeService) LeaveChallenge(ctx context.Context, userID string) error {
	profile, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.InChallenge() {
		return apperr.Precondition(apperr.CodeNotInChallenge, "You are not in a challenge")
	}
	challengeID := *profile.ActiveChallengeID

	p, err := s.store.GetParticipant(ctx, challengeID, userID)
	switch {
	case err == nil:
		if err := s.store.DeleteParticipant(ctx, p.ID); err != nil {
			return apperr.Write("delete challenge participant", err)
		}
	case !apperr.IsNotFound(err):
		return err
	}

	c, err := s.store.GetChallenge(ctx, challengeID)
	switch {
	case err == nil:
		remaining := make([]string, 0, len(c.Participants))
		for _, id := range c.Participants {
			if id != userID {
				remaining = append(remaining, id)
			}
		}
		if err := s.store.UpdateChallengeParticipants(ctx, challengeID, remaining); err != nil {
			return apperr.Write("remove from participant list", err)
		}
	case !apperr.IsNotFound(err):
		return err
	}

	if err := s.store.SetUserChallenge(ctx, userID, nil, user.StateInactive); err != nil {
		return apperr.Write("clear active challenge", err)
	}
	log.Printf("LeaveChallenge: %s left %s", userID, challengeID)
	return nil
}

// GetChallengeProgress builds the ranked view with each participant's fast for today.
func (s *ChallengeService) GetChallengeProgress(ctx context.Context, challengeID string) (*challenge.ProgressResponse, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	names := make(map[string]string, len(participants))
	locs := make(map[string]*time.Location, len(participants))
	records := make(map[string][]*fasting.Record, len(participants))
	for _, p := range participants {
		if profile, err := s.store.GetUser(ctx, p.UserID); err == nil {
			names[p.UserID] = profile.DisplayName
			locs[p.UserID] = profile.Location(s.defaultLoc)
		} else if !apperr.IsNotFound(err) {
			return nil, err
		}
		rs, err := s.store.ListFastingRecords(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to list fasting records: %w", err)
		}
		records[p.UserID] = rs
	}

	now := s.now()
	return &challenge.ProgressResponse{
		Challenge:    c,
		StartsIn:     challenge.CountdownTo(c.StartDate, now),
		Participants: challenge.BuildProgress(participants, names, records, locs, now, s.defaultLoc),
		ComputedAt:   now,
	}, nil
}

func (s *ChallengeService) GetLeaderboard(ctx context.Context, challengeID string) ([]*challenge.Participant, error) {
	if _, err := s.store.GetChallenge(ctx, challengeID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return challenge.Rank(participants), nil
}

func (s *ChallengeService) GetSharing(ctx context.Context, challengeID string) (*challenge.SharingResponse, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	link := challenge.ShareLink(s.baseURL, c.InviteCode)
	qr, err := challenge.ShareQRCode(link)
	if err != nil {
		log.Printf("GetSharing: %v", err)
	}
	return &challenge.SharingResponse{
		InviteCode:   c.InviteCode,
		ShareLink:    link,
		WhatsAppLink: challenge.WhatsAppLink(link, c.Name),
		QrCodeBase64: qr,
	}, nil
}

// ExpireChallenges marks active challenges past their end date as expired
// and moves their participants to the inactive state.
func (s *ChallengeService) ExpireChallenges(ctx context.Context) (int, error) {
	active, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active challenges: %w", err)
	}

	now := s.now()
	expired := 0
	for _, c := range active {
		if !now.After(c.EndDate) {
			continue
		}
		if err := s.store.UpdateChallengeStatus(ctx, c.ID, challenge.StatusExpired); err != nil {
			log.Printf("ExpireChallenges: failed to expire %s: %v", c.ID, err)
			continue
		}
		expired++

		for _, userID := range c.Participants {
			profile, err := s.store.GetUser(ctx, userID)
			if err != nil {
				log.Printf("ExpireChallenges: failed to load participant %s: %v", userID, err)
				continue
			}
			if profile.ActiveChallengeID == nil || *profile.ActiveChallengeID != c.ID {
				continue
			}
			if err := s.store.SetUserChallenge(ctx, userID, nil, user.StateInactive); err != nil {
				log.Printf("ExpireChallenges: failed to deactivate %s: %v", userID, err)
			}
		}

		ended := c
		s.notify(func() { utils.ChallengeEnded(s.notifier, ended) })
	}

	if expired > 0 {
		log.Printf("ExpireChallenges: expired %d challenges", expired)
	}
	return expired, nil
}
