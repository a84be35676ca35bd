package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
	"gorm.io/gorm"
)

// ChallengeService owns the challenge lifecycle up to the deadline:
// initialization, enrollment and the read surface.
type ChallengeService struct {
	db              *gorm.DB
	challengeRepo   *repository.ChallengeRepository
	participantRepo *repository.ParticipantRepository
	vaultRepo       *repository.VaultRepository
	cache           *repository.ChallengeCacheRepository
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	participantRepo *repository.ParticipantRepository,
	vaultRepo *repository.VaultRepository,
	cache *repository.ChallengeCacheRepository,
) *ChallengeService {
	return &ChallengeService{
		db:              db,
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		vaultRepo:       vaultRepo,
		cache:           cache,
	}
}

// logger wraps the execution context with component info
func (s *ChallengeService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "challenge-service").Logger()
	return &l
}

// InitializeChallengeParams are the authority-supplied parameters of a new
// challenge.
type InitializeChallengeParams struct {
	ChallengeID     int64
	Authority       common.Address
	StepGoal        int64
	DurationDays    int
	EntryAmount     int64
	MaxParticipants int
}

// InitializeChallenge creates a challenge record. The authority bound here
// is the only identity that may later tally the challenge.
func (s *ChallengeService) InitializeChallenge(ctx context.Context, params InitializeChallengeParams, now time.Time) (*domain.Challenge, error) {
	if params.DurationDays < 1 || params.DurationDays > domain.MaxDurationDays {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid,
			fmt.Errorf("duration must be between 1 and %d days, got %d", domain.MaxDurationDays, params.DurationDays),
			domain.WithMsg("Invalid challenge duration"))
	}
	if params.StepGoal <= 0 || params.EntryAmount <= 0 || params.MaxParticipants <= 0 {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid,
			fmt.Errorf("step goal, entry amount and capacity must be positive"),
			domain.WithMsg("Invalid challenge parameters"))
	}

	start := now.Unix()
	challenge := &domain.Challenge{
		ID:              params.ChallengeID,
		Authority:       params.Authority,
		StepGoal:        params.StepGoal,
		DurationDays:    params.DurationDays,
		EntryAmount:     params.EntryAmount,
		MaxParticipants: params.MaxParticipants,
		StartTime:       start,
		EndTime:         start + int64(params.DurationDays)*domain.SecondsPerDay,
		Active:          true,
	}

	if err := s.challengeRepo.Create(challenge); err != nil {
		s.logger(ctx).Error().Err(err).Int64("challenge_id", params.ChallengeID).Msg("failed to create challenge")
		return nil, err
	}

	s.logger(ctx).Info().
		Int64("challenge_id", challenge.ID).
		Str("authority", challenge.Authority.Hex()).
		Int("duration_days", challenge.DurationDays).
		Int64("entry_amount", challenge.EntryAmount).
		Msg("challenge initialized")

	return challenge, nil
}

// JoinChallenge enrolls a wallet into a challenge: it creates the
// participant record, moves the entry stake into the challenge vault and
// bumps the pool counters, all in one transaction.
func (s *ChallengeService) JoinChallenge(ctx context.Context, challengeID int64, wallet common.Address, now time.Time) (*domain.Participant, error) {
	var participant *domain.Participant

	err := s.db.Transaction(func(tx *gorm.DB) error {
		challenge, err := s.challengeRepo.LockByID(tx, challengeID)
		if err != nil {
			return err
		}

		if !challenge.Active {
			return domain.ErrChallengeNotActive
		}
		if challenge.Completed {
			return domain.ErrChallengeCompleted
		}
		if challenge.IsFull() {
			return domain.ErrChallengeFull
		}
		if challenge.HasEnded(now) {
			return domain.ErrChallengeEnded
		}

		participant = &domain.Participant{
			Wallet:      wallet,
			ChallengeID: challengeID,
		}
		if err := s.participantRepo.Create(tx, participant); err != nil {
			return err
		}

		if err := s.vaultRepo.Move(tx, challenge.EntryAmount, wallet, challenge.VaultAddress()); err != nil {
			return err
		}

		challenge.ParticipantCount++
		challenge.TotalPool += challenge.EntryAmount
		return s.challengeRepo.Save(tx, challenge)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, challengeID)

	s.logger(ctx).Info().
		Int64("challenge_id", challengeID).
		Str("wallet", wallet.Hex()).
		Msg("wallet joined challenge")

	return participant, nil
}

// GetChallenge retrieves one challenge record, preferring the cache when
// one is configured.
func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID int64) (*domain.Challenge, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetChallenge(ctx, challengeID); err != nil {
			s.logger(ctx).Warn().Err(err).Int64("challenge_id", challengeID).Msg("challenge cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	challenge, err := s.challengeRepo.FindByID(challengeID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetChallenge(ctx, challenge); err != nil {
			s.logger(ctx).Warn().Err(err).Int64("challenge_id", challengeID).Msg("challenge cache write failed")
		}
	}
	return challenge, nil
}

// ListChallenges retrieves all challenge records.
func (s *ChallengeService) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	challenges, err := s.challengeRepo.FindAll()
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to list challenges")
		return nil, err
	}
	return challenges, nil
}

// ListParticipants retrieves all participant records of a challenge.
func (s *ChallengeService) ListParticipants(ctx context.Context, challengeID int64) ([]*domain.Participant, error) {
	if _, err := s.challengeRepo.FindByID(challengeID); err != nil {
		return nil, err
	}
	return s.participantRepo.FindByChallenge(challengeID)
}

// VaultBalance reads the current custody balance of a challenge's vault.
func (s *ChallengeService) VaultBalance(ctx context.Context, challengeID int64) (int64, error) {
	return s.vaultRepo.Balance(domain.VaultAddress(challengeID))
}

func (s *ChallengeService) invalidateCache(ctx context.Context, challengeID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateChallenge(ctx, challengeID); err != nil {
		s.logger(ctx).Warn().Err(err).Int64("challenge_id", challengeID).Msg("challenge cache invalidation failed")
	}
}
