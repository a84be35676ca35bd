package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ParticipantStats is one participant's progress summary.
type ParticipantStats struct {
	Wallet         common.Address  `json:"wallet"`
	SuccessfulDays int             `json:"successfulDays"`
	CompletionRate decimal.Decimal `json:"completionRate"`
	Withdrawn      bool            `json:"withdrawn"`
}

// ChallengeStats summarizes a challenge's pool and its participants'
// progress for the read API.
type ChallengeStats struct {
	ChallengeID            int64              `json:"challengeId"`
	TotalPool              int64              `json:"totalPool"`
	VaultBalance           int64              `json:"vaultBalance"`
	ParticipantCount       int                `json:"participantCount"`
	SuccessfulParticipants int                `json:"successfulParticipants"`
	Completed              bool               `json:"completed"`
	AverageCompletionRate  decimal.Decimal    `json:"averageCompletionRate"`
	Participants           []ParticipantStats `json:"participants"`
}

// GetChallengeStats aggregates progress statistics across a challenge's
// participants.
func (s *ChallengeService) GetChallengeStats(ctx context.Context, challengeID int64) (*ChallengeStats, error) {
	challenge, err := s.challengeRepo.FindByID(challengeID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.FindByChallenge(challengeID)
	if err != nil {
		return nil, err
	}
	vaultBalance, err := s.VaultBalance(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	duration := decimal.NewFromInt(int64(challenge.DurationDays))
	stats := &ChallengeStats{
		ChallengeID:            challenge.ID,
		TotalPool:              challenge.TotalPool,
		VaultBalance:           vaultBalance,
		ParticipantCount:       challenge.ParticipantCount,
		SuccessfulParticipants: challenge.SuccessfulParticipants,
		Completed:              challenge.Completed,
		AverageCompletionRate:  decimal.Zero,
		Participants:           make([]ParticipantStats, 0, len(participants)),
	}

	totalRate := decimal.Zero
	for _, participant := range participants {
		rate := decimal.NewFromInt(int64(participant.SuccessfulDays)).DivRound(duration, 4)
		totalRate = totalRate.Add(rate)
		stats.Participants = append(stats.Participants, ParticipantStats{
			Wallet:         participant.Wallet,
			SuccessfulDays: participant.SuccessfulDays,
			CompletionRate: rate,
			Withdrawn:      participant.Withdrawn,
		})
	}
	if len(participants) > 0 {
		stats.AverageCompletionRate = totalRate.DivRound(decimal.NewFromInt(int64(len(participants))), 4)
	}

	return stats, nil
}
