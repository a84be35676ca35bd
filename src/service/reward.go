package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
	"gorm.io/gorm"
)

// RewardService owns the end-of-challenge economics: the one-shot tally and
// the per-participant withdrawal.
type RewardService struct {
	db              *gorm.DB
	challengeRepo   *repository.ChallengeRepository
	participantRepo *repository.ParticipantRepository
	vaultRepo       *repository.VaultRepository
	cache           *repository.ChallengeCacheRepository
}

func NewRewardService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	participantRepo *repository.ParticipantRepository,
	vaultRepo *repository.VaultRepository,
	cache *repository.ChallengeCacheRepository,
) *RewardService {
	return &RewardService{
		db:              db,
		challengeRepo:   challengeRepo,
		participantRepo: participantRepo,
		vaultRepo:       vaultRepo,
		cache:           cache,
	}
}

// logger wraps the execution context with component info
func (s *RewardService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "reward-service").Logger()
	return &l
}

// ProcessTally closes an ended challenge: it counts the participants that
// completed every day and freezes that count on the record. The transition
// happens exactly once; calling again fails with ChallengeAlreadyCompleted.
// Only the authority bound at initialization may tally.
func (s *RewardService) ProcessTally(ctx context.Context, challengeID int64, caller common.Address, now time.Time) (*domain.Challenge, error) {
	var challenge *domain.Challenge

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		challenge, err = s.challengeRepo.LockByID(tx, challengeID)
		if err != nil {
			return err
		}

		if caller != challenge.Authority {
			return domain.ErrUnauthorized
		}
		if !challenge.Active {
			return domain.ErrChallengeNotActive
		}
		if challenge.Completed {
			return domain.ErrChallengeAlreadyCompleted
		}
		if !challenge.HasEnded(now) {
			return domain.ErrChallengeNotEnded
		}

		count, err := s.participantRepo.CountFullySuccessful(tx, challengeID, challenge.DurationDays)
		if err != nil {
			return err
		}

		challenge.SuccessfulParticipants = count
		challenge.Active = false
		challenge.Completed = true
		return s.challengeRepo.Save(tx, challenge)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, challengeID)

	s.logger(ctx).Info().
		Int64("challenge_id", challengeID).
		Int("successful_participants", challenge.SuccessfulParticipants).
		Msg("challenge tallied")

	return challenge, nil
}

// WithdrawReward pays out the caller's share of a completed challenge and
// burns their one-shot withdrawal right. A fully-successful participant
// receives their stake plus a floor share of the forfeited pool; everyone
// else receives nothing but is still marked withdrawn.
func (s *RewardService) WithdrawReward(ctx context.Context, challengeID int64, wallet common.Address) (int64, error) {
	var payout int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		challenge, err := s.challengeRepo.Get(tx, challengeID)
		if err != nil {
			return err
		}

		if !challenge.Completed {
			return domain.ErrChallengeNotCompleted
		}

		participant, err := s.participantRepo.LockByChallengeAndWallet(tx, challengeID, wallet)
		if err != nil {
			return err
		}
		if participant.Withdrawn {
			return domain.ErrAlreadyWithdrawn
		}

		if participant.CompletedAll(challenge.DurationDays) {
			payout = domain.Payout(challenge.TotalPool, challenge.EntryAmount, challenge.SuccessfulParticipants)
			if err := s.vaultRepo.Move(tx, payout, challenge.VaultAddress(), wallet); err != nil {
				return err
			}
		}

		participant.Withdrawn = true
		return s.participantRepo.Save(tx, participant)
	})
	if err != nil {
		return 0, err
	}

	s.logger(ctx).Info().
		Int64("challenge_id", challengeID).
		Str("wallet", wallet.Hex()).
		Int64("payout", payout).
		Msg("withdrawal processed")

	return payout, nil
}

// PayoutPreview describes what a participant would receive from a
// withdrawal. For open challenges the share is a projection from current
// progress and may still shrink as more participants finish.
type PayoutPreview struct {
	ChallengeID    int64 `json:"challengeId"`
	Completed      bool  `json:"completed"`
	Projected      bool  `json:"projected"`
	FullySuccess   bool  `json:"fullySuccessful"`
	EntryAmount    int64 `json:"entryAmount"`
	RewardShare    int64 `json:"rewardShare"`
	Payout         int64 `json:"payout"`
	SuccessfulPeer int   `json:"successfulParticipants"`
}

// PreviewPayout computes the withdrawal amount read-only, without consuming
// the one-shot right.
func (s *RewardService) PreviewPayout(ctx context.Context, challengeID int64, wallet common.Address) (*PayoutPreview, error) {
	challenge, err := s.challengeRepo.FindByID(challengeID)
	if err != nil {
		return nil, err
	}
	participant, err := s.participantRepo.FindByChallengeAndWallet(challengeID, wallet)
	if err != nil {
		return nil, err
	}

	successful := challenge.SuccessfulParticipants
	if !challenge.Completed {
		successful, err = s.participantRepo.CountFullySuccessful(s.db, challengeID, challenge.DurationDays)
		if err != nil {
			return nil, err
		}
	}

	preview := &PayoutPreview{
		ChallengeID:    challengeID,
		Completed:      challenge.Completed,
		Projected:      !challenge.Completed,
		FullySuccess:   participant.CompletedAll(challenge.DurationDays),
		EntryAmount:    challenge.EntryAmount,
		SuccessfulPeer: successful,
	}
	if preview.FullySuccess {
		preview.RewardShare = domain.RewardShare(challenge.TotalPool, challenge.EntryAmount, successful)
		preview.Payout = domain.Payout(challenge.TotalPool, challenge.EntryAmount, successful)
	}
	return preview, nil
}

func (s *RewardService) invalidateCache(ctx context.Context, challengeID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateChallenge(ctx, challengeID); err != nil {
		s.logger(ctx).Warn().Err(err).Int64("challenge_id", challengeID).Msg("challenge cache invalidation failed")
	}
}
