package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/user"
)

func TestEnsureProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.users.EnsureProfile(ctx, "u1", "+15550001")
	require.NoError(t, err)
	assert.Equal(t, user.StateNew, p.State)
	assert.Equal(t, fasting.SixteenEight, p.FastingPreferences.FastingType)
	assert.Equal(t, "12:00", p.FastingPreferences.StartTime)
	assert.Equal(t, []string{"SaveUser"}, env.store.Writes())

	again, err := env.users.EnsureProfile(ctx, "u1", "+15550001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Len(t, env.store.Writes(), 1)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.EnsureProfile(ctx, "u1", "+15550001")
	require.NoError(t, err)

	p, err := env.users.UpdateProfile(ctx, "u1", &user.UpdateProfileRequest{DisplayName: " Ann ", Timezone: "Europe/Sofia"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.DisplayName)
	assert.Equal(t, "Europe/Sofia", p.Timezone)

	var ve *apperr.ValidationError
	_, err = env.users.UpdateProfile(ctx, "u1", &user.UpdateProfileRequest{DisplayName: strings.Repeat("a", 51)})
	assert.True(t, errors.As(err, &ve))
	_, err = env.users.UpdateProfile(ctx, "u1", &user.UpdateProfileRequest{Timezone: "Mars/Olympus"})
	assert.True(t, errors.As(err, &ve))
}

func TestUpdatePreferencesAndSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.EnsureProfile(ctx, "u1", "+15550001")
	require.NoError(t, err)

	sched, err := env.users.GetSchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "04:00", sched.EndTime)

	_, err = env.users.UpdatePreferences(ctx, "u1", &user.UpdatePreferencesRequest{FastingType: fasting.OMAD, StartTime: "18:30"})
	require.NoError(t, err)
	sched, err = env.users.GetSchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "17:30", sched.EndTime)

	_, err = env.users.UpdatePreferences(ctx, "u1", &user.UpdatePreferencesRequest{FastingType: fasting.FiveTwo, StartTime: "08:00"})
	require.NoError(t, err)
	sched, err = env.users.GetSchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, fasting.NotApplicable, sched.EndTime)

	var ve *apperr.ValidationError
	_, err = env.users.UpdatePreferences(ctx, "u1", &user.UpdatePreferencesRequest{FastingType: "Juice cleanse", StartTime: "08:00"})
	assert.True(t, errors.As(err, &ve))
}

func TestWeightGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.EnsureProfile(ctx, "u1", "+15550001")
	require.NoError(t, err)

	goal, err := env.users.GetWeightGoal(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, goal.WeightGoal)

	goal, err = env.users.UpdateWeightGoal(ctx, "u1", &user.WeightGoalRequest{WeightGoal: 65})
	require.NoError(t, err)
	require.NotNil(t, goal.WeightGoal)
	assert.Equal(t, 65.0, *goal.WeightGoal)

	_, err = env.users.UpdateWeightGoal(ctx, "u1", &user.WeightGoalRequest{WeightGoal: -1})
	var ve *apperr.ValidationError
	assert.True(t, errors.As(err, &ve))
}
