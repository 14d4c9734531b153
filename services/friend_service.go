package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/utils"
)

const leaderboardWindow = 7 * 24 * time.Hour

type FriendService struct {
	store    store.Store
	notifier utils.NotificationCreator
	now      func() time.Time
	async    func(func())
}

func NewFriendService(st store.Store, notifier utils.NotificationCreator) *FriendService {
	return &FriendService{
		store:    st,
		notifier: notifier,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

func (s *FriendService) notify(f func()) {
	if s.notifier == nil {
		return
	}
	s.async(f)
}

func (s *FriendService) SendFriendRequest(ctx context.Context, userID, friendID string) (*friendship.Friendship, error) {
	if friendID == "" {
		return nil, apperr.Invalid("friendId", "friendId is required")
	}
	if friendID == userID {
		return nil, apperr.Precondition(apperr.CodeFriendship, "You cannot add yourself as a friend")
	}

	sender, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, friendID); err != nil {
		return nil, err
	}

	_, err = s.store.FindFriendship(ctx, userID, friendID)
	if err == nil {
		return nil, apperr.Precondition(apperr.CodeFriendship, "Friendship already exists")
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}

	now := s.now()
	f := &friendship.Friendship{
		User1ID:     userID,
		User2ID:     friendID,
		Status:      friendship.FriendshipPending,
		InitiatedBy: userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateFriendship(ctx, f); err != nil {
		return nil, apperr.Write("create friendship", err)
	}

	senderName := sender.DisplayName
	s.notify(func() { utils.FriendRequestSent(s.notifier, userID, senderName, friendID, f.ID) })
	return f, nil
}

// AcceptFriendRequest accepts a pending request addressed to userID.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, userID, friendshipID string) (*friendship.Friendship, error) {
	f, err := s.store.GetFriendship(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if !f.Involves(userID) {
		return nil, apperr.NotFound("friendship", friendshipID)
	}
	if f.InitiatedBy == userID {
		return nil, apperr.Precondition(apperr.CodeFriendship, "You cannot accept your own friend request")
	}
	if f.Status != friendship.FriendshipPending {
		return nil, apperr.Precondition(apperr.CodeFriendship, "Friend request is not pending")
	}

	now := s.now()
	if err := s.store.UpdateFriendshipStatus(ctx, f.ID, friendship.FriendshipAccepted, now); err != nil {
		return nil, apperr.Write("accept friend request", err)
	}
	f.Status = friendship.FriendshipAccepted
	f.UpdatedAt = now

	accepterName := ""
	if p, err := s.store.GetUser(ctx, userID); err == nil {
		accepterName = p.DisplayName
	}
	s.notify(func() { utils.FriendRequestAccepted(s.notifier, userID, accepterName, f.InitiatedBy) })
	return f, nil
}

func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	f, err := s.store.FindFriendship(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFriendship(ctx, f.ID); err != nil {
		return apperr.Write("remove friend", err)
	}
	return nil
}

// ListFriends returns accepted friends and pending requests in either direction.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]*friendship.Friend, error) {
	fs, err := s.store.ListFriendships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}

	friends := make([]*friendship.Friend, 0, len(fs))
	for _, f := range fs {
		otherID := f.Other(userID)
		fr := &friendship.Friend{UserID: otherID, Status: f.Status, Since: f.UpdatedAt}
		if p, err := s.store.GetUser(ctx, otherID); err == nil {
			fr.DisplayName = p.DisplayName
			fr.PhotoURL = p.PhotoURL
		}
		friends = append(friends, fr)
	}
	return friends, nil
}

// FriendsLeaderboard ranks the user and accepted friends by fasts completed
// in the last seven days.
func (s *FriendService) FriendsLeaderboard(ctx context.Context, userID string) (*friendship.Leaderboard, error) {
	fs, err := s.store.ListFriendships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}

	ids := []string{userID}
	for _, f := range fs {
		if f.Status == friendship.FriendshipAccepted {
			ids = append(ids, f.Other(userID))
		}
	}

	since := s.now().Add(-leaderboardWindow)
	entries := make([]*friendship.LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		records, err := s.store.ListFastingRecords(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list fasting records: %w", err)
		}
		e := &friendship.LeaderboardEntry{UserID: id}
		for _, r := range records {
			if r.Status == fasting.StatusCompleted && r.ActualEndTime != nil && r.ActualEndTime.After(since) {
				e.CompletedThisWeek++
			}
		}
		if p, err := s.store.GetUser(ctx, id); err == nil {
			e.DisplayName = p.DisplayName
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedThisWeek > entries[j].CompletedThisWeek
	})
	board := &friendship.Leaderboard{Entries: entries, TotalUsers: len(entries)}
	for i, e := range entries {
		e.Rank = i + 1
		if e.UserID == userID {
			board.UserPosition = e
		}
	}
	return board, nil
}
