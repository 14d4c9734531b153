package services

import (
	"context"
	"fmt"
	"time"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/weight"
)

type WeightService struct {
	store store.Store
	now   func() time.Time
}

func NewWeightService(st store.Store) *WeightService {
	return &WeightService{store: st, now: time.Now}
}

func (s *WeightService) AddWeight(ctx context.Context, userID string, req *weight.AddWeightRequest) (*weight.Record, error) {
	v, err := weight.Parse(req.Weight)
	if err != nil {
		return nil, err
	}
	r := &weight.Record{UserID: userID, Weight: v, Date: s.now()}
	if err := s.store.AddWeightRecord(ctx, r); err != nil {
		return nil, apperr.Write("add weight", err)
	}
	return r, nil
}

// ListWeights returns the user's weigh-ins oldest first.
func (s *WeightService) ListWeights(ctx context.Context, userID string) ([]*weight.Record, error) {
	records, err := s.store.ListWeightRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight records: %w", err)
	}
	weight.SortByDate(records)
	if records == nil {
		records = []*weight.Record{}
	}
	return records, nil
}
