package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/service"
)

type ParticipantHandler struct {
	challengeService    *service.ChallengeService
	verificationService *service.VerificationService
}

func NewParticipantHandler(challengeService *service.ChallengeService, verificationService *service.VerificationService) *ParticipantHandler {
	return &ParticipantHandler{
		challengeService:    challengeService,
		verificationService: verificationService,
	}
}

func (h *ParticipantHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "participant").Logger()
	return &l
}

// Enroll godoc
// @Summary Enroll the caller in a challenge
// @Description Creates the participant record and moves the entry stake into the challenge vault
// @Tags participants
// @Produce json
// @Param id path int true "Challenge ID"
// @Success 201 {object} StandardResponse
// @Router /challenges/{id}/enroll [post]
func (h *ParticipantHandler) Enroll(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "Enroll").Logger()

	wallet, ok := callerIdentity(c)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	participant, err := h.challengeService.JoinChallenge(c.Request.Context(), challengeID, wallet, time.Now())
	if err != nil {
		logger.Error().Err(err).Int64("challenge_id", challengeID).Msg("enrollment failed")
		respondWithError(c, err)
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccessAndStatus(c, http.StatusCreated, newParticipantResponse(participant, challenge.DurationDays), "Enrolled")
}

// SubmitVerificationRequest represents one reported daily measurement.
// Day is a pointer so day zero still passes required-field binding.
type SubmitVerificationRequest struct {
	Day       *int  `json:"day" binding:"required,min=0"`
	StepCount int64 `json:"stepCount" binding:"min=0"`
}

// SubmitVerification godoc
// @Summary Report a daily step count
// @Description Marks the day completed when the count meets the challenge goal; missing the goal is a no-op
// @Tags participants
// @Accept json
// @Produce json
// @Param id path int true "Challenge ID"
// @Param request body SubmitVerificationRequest true "Measurement"
// @Success 200 {object} StandardResponse
// @Router /challenges/{id}/verifications [post]
func (h *ParticipantHandler) SubmitVerification(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "SubmitVerification").Logger()

	wallet, ok := callerIdentity(c)
	if !ok {
		return
	}
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	var req SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Invalid request payload")))
		return
	}

	participant, err := h.verificationService.SubmitVerification(c.Request.Context(), challengeID, wallet, *req.Day, req.StepCount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, newParticipantResponse(participant, challenge.DurationDays))
}
