package service

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
	"github.com/stepbuddy/backend/src/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testAuthority = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testWalletA   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testWalletB   = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	testWalletC   = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
)

type testServices struct {
	db           *gorm.DB
	vaultRepo    *repository.VaultRepository
	challenges   *ChallengeService
	verification *VerificationService
	rewards      *RewardService
}

func setupServices(t *testing.T) *testServices {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	challengeRepo := repository.NewChallengeRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	vaultRepo := repository.NewVaultRepository(db)

	return &testServices{
		db:           db,
		vaultRepo:    vaultRepo,
		challenges:   NewChallengeService(db, challengeRepo, participantRepo, vaultRepo, nil),
		verification: NewVerificationService(db, challengeRepo, participantRepo),
		rewards:      NewRewardService(db, challengeRepo, participantRepo, vaultRepo, nil),
	}
}

// fund credits a wallet so it can stake.
func (s *testServices) fund(t *testing.T, wallet common.Address, amount int64) {
	require.NoError(t, s.vaultRepo.Deposit(wallet, amount))
}

func (s *testServices) balance(t *testing.T, address common.Address) int64 {
	balance, err := s.vaultRepo.Balance(address)
	require.NoError(t, err)
	return balance
}

func defaultParams(id int64) InitializeChallengeParams {
	return InitializeChallengeParams{
		ChallengeID:     id,
		Authority:       testAuthority,
		StepGoal:        1000,
		DurationDays:    3,
		EntryAmount:     100,
		MaxParticipants: 2,
	}
}

func TestInitializeChallenge(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	challenge, err := s.challenges.InitializeChallenge(ctx, defaultParams(1), now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), challenge.ID)
	assert.Equal(t, testAuthority, challenge.Authority)
	assert.True(t, challenge.Active)
	assert.False(t, challenge.Completed)
	assert.Equal(t, 0, challenge.ParticipantCount)
	assert.Equal(t, int64(0), challenge.TotalPool)
	assert.Equal(t, now.Unix()+3*domain.SecondsPerDay, challenge.EndTime)
}

func TestInitializeChallenge_InvalidDuration(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	params := defaultParams(2)
	params.DurationDays = domain.MaxDurationDays + 1
	_, err := s.challenges.InitializeChallenge(ctx, params, time.Now())
	require.Error(t, err)

	params.DurationDays = 0
	_, err = s.challenges.InitializeChallenge(ctx, params, time.Now())
	require.Error(t, err)
}

func TestJoinChallenge(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	challenge, err := s.challenges.InitializeChallenge(ctx, defaultParams(3), now)
	require.NoError(t, err)

	s.fund(t, testWalletA, 100)

	participant, err := s.challenges.JoinChallenge(ctx, 3, testWalletA, now)
	require.NoError(t, err)
	assert.Equal(t, testWalletA, participant.Wallet)
	assert.Equal(t, 0, participant.SuccessfulDays)
	assert.False(t, participant.Withdrawn)

	// Stake moved into the vault, counters updated.
	assert.Equal(t, int64(0), s.balance(t, testWalletA))
	assert.Equal(t, int64(100), s.balance(t, challenge.VaultAddress()))

	updated, err := s.challenges.GetChallenge(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ParticipantCount)
	assert.Equal(t, int64(100), updated.TotalPool)
	assert.Equal(t, updated.TotalPool, updated.EntryAmount*int64(updated.ParticipantCount))
}

func TestJoinChallenge_InsufficientBalance(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(4), now)
	require.NoError(t, err)

	s.fund(t, testWalletA, 99)

	_, err = s.challenges.JoinChallenge(ctx, 4, testWalletA, now)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The aborted enrollment must leave no trace.
	challenge, err := s.challenges.GetChallenge(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, challenge.ParticipantCount)
	assert.Equal(t, int64(0), challenge.TotalPool)
	assert.Equal(t, int64(99), s.balance(t, testWalletA))

	participants, err := s.challenges.ListParticipants(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, participants)
}

func TestJoinChallenge_Full(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	// Scenario D: capacity 2, third enrollment fails with ChallengeFull
	// and moves no funds.
	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(5), now)
	require.NoError(t, err)

	for _, wallet := range []common.Address{testWalletA, testWalletB} {
		s.fund(t, wallet, 100)
		_, err := s.challenges.JoinChallenge(ctx, 5, wallet, now)
		require.NoError(t, err)
	}

	s.fund(t, testWalletC, 100)
	_, err = s.challenges.JoinChallenge(ctx, 5, testWalletC, now)
	require.ErrorIs(t, err, domain.ErrChallengeFull)

	assert.Equal(t, int64(100), s.balance(t, testWalletC))

	challenge, err := s.challenges.GetChallenge(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, challenge.ParticipantCount)
	assert.Equal(t, int64(200), challenge.TotalPool)
}

func TestJoinChallenge_Ended(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(6), now)
	require.NoError(t, err)

	s.fund(t, testWalletA, 100)

	afterEnd := now.Add(3*24*time.Hour + time.Second)
	_, err = s.challenges.JoinChallenge(ctx, 6, testWalletA, afterEnd)
	require.ErrorIs(t, err, domain.ErrChallengeEnded)
}

func TestJoinChallenge_DuplicateEnrollment(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.challenges.InitializeChallenge(ctx, defaultParams(7), now)
	require.NoError(t, err)

	s.fund(t, testWalletA, 300)

	_, err = s.challenges.JoinChallenge(ctx, 7, testWalletA, now)
	require.NoError(t, err)

	// A retried enrollment fails at record creation; no second stake moves.
	_, err = s.challenges.JoinChallenge(ctx, 7, testWalletA, now)
	require.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	assert.Equal(t, int64(200), s.balance(t, testWalletA))

	challenge, err := s.challenges.GetChallenge(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, challenge.ParticipantCount)
	assert.Equal(t, int64(100), challenge.TotalPool)
}

func TestJoinChallenge_NotFound(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	s.fund(t, testWalletA, 100)
	_, err := s.challenges.JoinChallenge(ctx, 999, testWalletA, time.Now())
	require.Error(t, err)
}
