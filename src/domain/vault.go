package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// VaultAccount is one custody ledger account. Challenge vaults and
// participant wallets share the same ledger; amounts are non-negative
// integers in the smallest currency unit.
type VaultAccount struct {
	Address   common.Address `gorm:"primaryKey;type:bytea" json:"address"`
	Balance   int64          `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}
