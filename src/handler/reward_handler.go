package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/service"
)

type RewardHandler struct {
	rewardService *service.RewardService
}

func NewRewardHandler(rewardService *service.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

func (h *RewardHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "reward").Logger()
	return &l
}

// Tally godoc
// @Summary Close an ended challenge
// @Description Fixes the count of fully-successful participants; callable once, by the challenge authority only
// @Tags rewards
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 200 {object} StandardResponse
// @Router /challenges/{id}/tally [post]
func (h *RewardHandler) Tally(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "Tally").Logger()

	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	challenge, err := h.rewardService.ProcessTally(c.Request.Context(), challengeID, caller, time.Now())
	if err != nil {
		logger.Error().Err(err).Int64("challenge_id", challengeID).Msg("tally failed")
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, challenge)
}

// WithdrawResponse reports the amount paid out by a withdrawal.
type WithdrawResponse struct {
	ChallengeID int64 `json:"challengeId"`
	Payout      int64 `json:"payout"`
}

// Withdraw godoc
// @Summary Withdraw a participant's share
// @Description Pays out stake plus forfeiture share for full completion, zero otherwise; consumes the one-shot right either way
// @Tags rewards
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 200 {object} StandardResponse
// @Router /challenges/{id}/withdraw [post]
func (h *RewardHandler) Withdraw(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "Withdraw").Logger()

	wallet, ok := callerIdentity(c)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	payout, err := h.rewardService.WithdrawReward(c.Request.Context(), challengeID, wallet)
	if err != nil {
		logger.Error().Err(err).Int64("challenge_id", challengeID).Msg("withdrawal failed")
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, WithdrawResponse{ChallengeID: challengeID, Payout: payout})
}

// PreviewPayout handles GET /challenges/:id/payout
func (h *RewardHandler) PreviewPayout(c *gin.Context) {
	wallet, ok := callerIdentity(c)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	preview, err := h.rewardService.PreviewPayout(c.Request.Context(), challengeID, wallet)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, preview)
}
