package handler

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/repository"
)

// VaultHandler exposes the custody ledger: balance reads and the external
// funding path.
type VaultHandler struct {
	vaultRepo *repository.VaultRepository
}

func NewVaultHandler(vaultRepo *repository.VaultRepository) *VaultHandler {
	return &VaultHandler{
		vaultRepo: vaultRepo,
	}
}

func (h *VaultHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "vault").Logger()
	return &l
}

// BalanceResponse reports one ledger account's balance.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// GetBalance handles GET /accounts/:address/balance
func (h *VaultHandler) GetBalance(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}

	balance, err := h.vaultRepo.Balance(address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, BalanceResponse{Address: address.Hex(), Balance: balance})
}

// DepositRequest represents the request payload for a ledger deposit
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Deposit handles POST /accounts/:address/deposit
func (h *VaultHandler) Deposit(c *gin.Context) {
	logger := h.logger(c.Request.Context()).With().Str("func", "Deposit").Logger()

	address, ok := addressParam(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error().Err(err).Msg("invalid request payload")
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Invalid request payload")))
		return
	}

	if err := h.vaultRepo.Deposit(address, req.Amount); err != nil {
		logger.Error().Err(err).Str("address", address.Hex()).Msg("deposit failed")
		respondWithError(c, err)
		return
	}

	balance, err := h.vaultRepo.Balance(address)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithSuccess(c, BalanceResponse{Address: address.Hex(), Balance: balance})
}

// addressParam parses the :address path parameter.
func addressParam(c *gin.Context) (common.Address, bool) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		respondWithError(c, domain.NewError(domain.ErrorCodeParameterInvalid, errors.New("malformed address"), domain.WithMsg("Invalid account address")))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
