package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
)

// TallyScheduler periodically tallies ended challenges owned by the
// configured operator authority. Challenges owned by other authorities are
// never touched; their owners tally through the API.
type TallyScheduler struct {
	challengeRepo *repository.ChallengeRepository
	rewardService *RewardService
	operator      common.Address
	interval      time.Duration
}

type TallySchedulerConfig struct {
	Operator common.Address
	Interval time.Duration
}

func NewTallyScheduler(challengeRepo *repository.ChallengeRepository, rewardService *RewardService, config TallySchedulerConfig) *TallyScheduler {
	return &TallyScheduler{
		challengeRepo: challengeRepo,
		rewardService: rewardService,
		operator:      config.Operator,
		interval:      config.Interval,
	}
}

// logger wraps the execution context with component info
func (s *TallyScheduler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "tally-scheduler").Logger()
	return &l
}

// Start begins the polling loop and blocks until the context is cancelled.
func (s *TallyScheduler) Start(ctx context.Context) error {
	s.logger(ctx).Info().
		Dur("interval", s.interval).
		Str("operator", s.operator.Hex()).
		Msg("starting tally scheduler")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger(ctx).Info().Msg("tally scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger(ctx).Error().Err(err).Msg("tally sweep failed")
			}
		}
	}
}

// sweep tallies every operator-owned challenge whose window has closed.
func (s *TallyScheduler) sweep(ctx context.Context) error {
	now := time.Now()

	challenges, err := s.challengeRepo.FindEndedActive(s.operator, now.Unix())
	if err != nil {
		return err
	}

	for _, challenge := range challenges {
		_, err := s.rewardService.ProcessTally(ctx, challenge.ID, s.operator, now)
		if err != nil {
			// Lost the race against a manual tally of the same challenge.
			if errors.Is(err, domain.ErrChallengeAlreadyCompleted) || errors.Is(err, domain.ErrChallengeNotActive) {
				continue
			}
			s.logger(ctx).Error().Err(err).Int64("challenge_id", challenge.ID).Msg("scheduled tally failed")
			continue
		}
		s.logger(ctx).Info().Int64("challenge_id", challenge.ID).Msg("scheduled tally completed")
	}
	return nil
}
