package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"fastingFriendsAPI/internal/apperr"
)

func TestSagaCompensatesInReverse(t *testing.T) {
	var calls []string
	step := func(name string, fail error) sagaStep {
		return sagaStep{
			name: name,
			do: func(ctx context.Context) error {
				calls = append(calls, "do "+name)
				return fail
			},
			compensate: func(ctx context.Context) error {
				calls = append(calls, "undo "+name)
				return nil
			},
		}
	}
	cause := errors.New("boom")
	s := &saga{name: "test", steps: []sagaStep{step("a", nil), step("b", nil), step("c", cause), step("d", nil)}}

	err := s.run(context.Background())

	var we *apperr.RemoteWriteError
	assert.True(t, errors.As(err, &we))
	assert.Equal(t, "c", we.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"do a", "do b", "do c", "undo b", "undo a"}, calls)
}

func TestSagaCompensationRunsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compensated bool
	s := &saga{name: "test", steps: []sagaStep{
		{
			name: "first",
			do:   func(ctx context.Context) error { return nil },
			compensate: func(ctx context.Context) error {
				compensated = ctx.Err() == nil
				return nil
			},
		},
		{
			name: "second",
			do: func(ctx context.Context) error {
				cancel()
				return ctx.Err()
			},
		},
	}}

	err := s.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, compensated)
}

func TestSagaSuccessSkipsCompensation(t *testing.T) {
	undone := false
	s := &saga{name: "test", steps: []sagaStep{{
		name:       "only",
		do:         func(ctx context.Context) error { return nil },
		compensate: func(ctx context.Context) error { undone = true; return nil },
	}}}
	assert.NoError(t, s.run(context.Background()))
	assert.False(t, undone)
}
