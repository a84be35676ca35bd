package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/service"
)

type ChallengeHandler struct {
	challengeService *service.ChallengeService
}

func NewChallengeHandler(challengeService *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "challenge").Logger()
	return &l
}

// CreateChallengeRequest represents the request payload for challenge creation
type CreateChallengeRequest struct {
	ChallengeID     int64 `json:"challengeId" binding:"required,gt=0"`
	StepGoal        int64 `json:"stepGoal" binding:"required,gt=0"`
	DurationDays    int   `json:"durationDays" binding:"required,min=1,max=30"`
	EntryAmount     int64 `json:"entryAmount" binding:"required,gt=0"`
	MaxParticipants int   `json:"maxParticipants" binding:"required,gt=0"`
}

// CreateChallenge godoc
// @Summary Initialize a challenge
// @Description Create a new staking challenge owned by the caller identity
// @Tags challenges
// @Accept json
// @Produce json
// @Param request body CreateChallengeRequest true "Challenge parameters"
// @Success 201 {object} StandardResponse
// @Router /challenges [post]
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "CreateChallenge").Logger()

	authority, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Invalid request payload")))
		return
	}

	challenge, err := h.challengeService.InitializeChallenge(c.Request.Context(), service.InitializeChallengeParams{
		ChallengeID:     req.ChallengeID,
		Authority:       authority,
		StepGoal:        req.StepGoal,
		DurationDays:    req.DurationDays,
		EntryAmount:     req.EntryAmount,
		MaxParticipants: req.MaxParticipants,
	}, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccessAndStatus(c, http.StatusCreated, challenge, "Challenge created")
}

// ListChallenges handles GET /challenges
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	challenges, err := h.challengeService.ListChallenges(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, challenges)
}

// GetChallenge handles GET /challenges/:id
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, challenge)
}

// ParticipantResponse represents one participant record in API responses
type ParticipantResponse struct {
	Wallet         string `json:"wallet"`
	ChallengeID    int64  `json:"challengeId"`
	CompletionDays []bool `json:"completionDays"`
	SuccessfulDays int    `json:"successfulDays"`
	Withdrawn      bool   `json:"withdrawn"`
}

func newParticipantResponse(participant *domain.Participant, durationDays int) ParticipantResponse {
	return ParticipantResponse{
		Wallet:         participant.Wallet.Hex(),
		ChallengeID:    participant.ChallengeID,
		CompletionDays: participant.CompletionDays(durationDays),
		SuccessfulDays: participant.SuccessfulDays,
		Withdrawn:      participant.Withdrawn,
	}
}

// ListParticipants handles GET /challenges/:id/participants
func (h *ChallengeHandler) ListParticipants(c *gin.Context) {
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	participants, err := h.challengeService.ListParticipants(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response := make([]ParticipantResponse, 0, len(participants))
	for _, participant := range participants {
		response = append(response, newParticipantResponse(participant, challenge.DurationDays))
	}
	respondWithSuccess(c, response)
}

// GetChallengeStats handles GET /challenges/:id/stats
func (h *ChallengeHandler) GetChallengeStats(c *gin.Context) {
	challengeID, ok := challengeIDParam(c)
	if !ok {
		return
	}

	stats, err := h.challengeService.GetChallengeStats(c.Request.Context(), challengeID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, stats)
}

// challengeIDParam parses the :id path parameter.
func challengeIDParam(c *gin.Context) (int64, bool) {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || challengeID <= 0 {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Invalid challenge identifier")))
		return 0, false
	}
	return challengeID, true
}
