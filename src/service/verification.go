package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
	"gorm.io/gorm"
)

// VerificationService applies reported daily measurements to participant
// records. The measurement itself is trusted; its provenance is checked
// upstream of this service.
type VerificationService struct {
	db              *gorm.DB
	challengeRepo   *repository.ChallengeRepository
	participantRepo *repository.ParticipantRepository
}

func NewVerificationService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	participantRepo *repository.ParticipantRepository,
) *VerificationService {
	return &VerificationService{
		db:              db,
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
	}
}

// logger wraps the execution context with component info
func (s *VerificationService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "verification-service").Logger()
	return &l
}

// SubmitVerification records a day's step count for the caller's
// participant record. Meeting the goal marks the day at most once; a repeat
// for an already-marked day changes nothing. Missing the goal is a silent
// no-op, never an error, and never unmarks an earned day.
func (s *VerificationService) SubmitVerification(ctx context.Context, challengeID int64, wallet common.Address, day int, stepCount int64) (*domain.Participant, error) {
	var participant *domain.Participant

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Shared lock: fences against a concurrent tally flipping the
		// challenge to completed mid-verification, without serializing
		// verifications of distinct participants.
		challenge, err := s.challengeRepo.LockSharedByID(tx, challengeID)
		if err != nil {
			return err
		}

		if !challenge.Active {
			return domain.ErrChallengeNotActive
		}
		if challenge.Completed {
			return domain.ErrChallengeCompleted
		}
		if day < 0 || day >= challenge.DurationDays {
			return domain.ErrInvalidVerificationDay
		}

		participant, err = s.participantRepo.LockByChallengeAndWallet(tx, challengeID, wallet)
		if err != nil {
			return err
		}

		if stepCount < challenge.StepGoal {
			s.logger(ctx).Debug().
				Int64("challenge_id", challengeID).
				Str("wallet", wallet.Hex()).
				Int("day", day).
				Int64("step_count", stepCount).
				Msg("step goal not met")
			return nil
		}

		if !participant.MarkDayCompleted(day) {
			s.logger(ctx).Debug().
				Int64("challenge_id", challengeID).
				Str("wallet", wallet.Hex()).
				Int("day", day).
				Msg("day already verified")
			return nil
		}

		return s.participantRepo.Save(tx, participant)
	})
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Info().
		Int64("challenge_id", challengeID).
		Str("wallet", wallet.Hex()).
		Int("day", day).
		Int("successful_days", participant.SuccessfulDays).
		Msg("verification processed")

	return participant, nil
}
