package service

import (
	"context"
	"testing"
	"time"

	"github.com/stepbuddy/backend/src/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitVerification(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(40), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 40, testWalletA, now)
	require.NoError(t, err)

	// Meeting the goal marks the day.
	participant, err := s.verification.SubmitVerification(ctx, 40, testWalletA, 0, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1, participant.SuccessfulDays)
	assert.True(t, participant.DayCompleted(0))

	// Exactly at the goal still counts.
	participant, err = s.verification.SubmitVerification(ctx, 40, testWalletA, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, participant.SuccessfulDays)
}

func TestSubmitVerification_Idempotent(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(41), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 41, testWalletA, now)
	require.NoError(t, err)

	// Two passing verifications for the same day change state exactly once.
	_, err = s.verification.SubmitVerification(ctx, 41, testWalletA, 0, 2000)
	require.NoError(t, err)
	participant, err := s.verification.SubmitVerification(ctx, 41, testWalletA, 0, 3000)
	require.NoError(t, err)
	assert.Equal(t, 1, participant.SuccessfulDays)
}

func TestSubmitVerification_GoalNotMet(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(42), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 42, testWalletA, now)
	require.NoError(t, err)

	// Below the goal is a silent no-op, not an error.
	participant, err := s.verification.SubmitVerification(ctx, 42, testWalletA, 0, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, participant.SuccessfulDays)
	assert.False(t, participant.DayCompleted(0))

	// A missed day never takes back an already-earned one.
	_, err = s.verification.SubmitVerification(ctx, 42, testWalletA, 1, 5000)
	require.NoError(t, err)
	participant, err = s.verification.SubmitVerification(ctx, 42, testWalletA, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, participant.SuccessfulDays)
	assert.True(t, participant.DayCompleted(1))
}

func TestSubmitVerification_InvalidDay(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	// Scenario C: day index equal to the duration is rejected.
	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(43), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 43, testWalletA, now)
	require.NoError(t, err)

	_, err = s.verification.SubmitVerification(ctx, 43, testWalletA, 3, 5000)
	require.ErrorIs(t, err, domain.ErrInvalidVerificationDay)

	_, err = s.verification.SubmitVerification(ctx, 43, testWalletA, -1, 5000)
	require.ErrorIs(t, err, domain.ErrInvalidVerificationDay)
}

func TestSubmitVerification_CompletedChallenge(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(44), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 44, testWalletA, now)
	require.NoError(t, err)

	afterEnd := now.Add(3*24*time.Hour + time.Second)
	_, err = s.rewards.ProcessTally(ctx, 44, testAuthority, afterEnd)
	require.NoError(t, err)

	_, err = s.verification.SubmitVerification(ctx, 44, testWalletA, 0, 5000)
	require.ErrorIs(t, err, domain.ErrChallengeNotActive)
}

func TestSubmitVerification_AfterTally(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(46), now)
	require.NoError(t, err)
	s.fund(t, testWalletA, 100)
	_, err = s.challenges.JoinChallenge(ctx, 46, testWalletA, now)
	require.NoError(t, err)

	// 2 of 3 days before the deadline.
	for day := 0; day < 2; day++ {
		_, err := s.verification.SubmitVerification(ctx, 46, testWalletA, day, 5000)
		require.NoError(t, err)
	}

	afterEnd := now.Add(3*24*time.Hour + time.Second)
	challenge, err := s.rewards.ProcessTally(ctx, 46, testAuthority, afterEnd)
	require.NoError(t, err)
	require.Equal(t, 0, challenge.SuccessfulParticipants)

	// A verification landing after the tally must not retroactively turn
	// an uncounted participant into a fully successful one.
	_, err = s.verification.SubmitVerification(ctx, 46, testWalletA, 2, 5000)
	require.ErrorIs(t, err, domain.ErrChallengeNotActive)

	participants, err := s.challenges.ListParticipants(ctx, 46)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, 2, participants[0].SuccessfulDays)
	assert.False(t, participants[0].DayCompleted(2))

	// The forfeited stake stays in the vault.
	payout, err := s.rewards.WithdrawReward(ctx, 46, testWalletA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), payout)
}

func TestSubmitVerification_NotEnrolled(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(45), now)
	require.NoError(t, err)

	_, err = s.verification.SubmitVerification(ctx, 45, testWalletB, 0, 5000)
	require.Error(t, err)
}
