package domain

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MaxDurationDays bounds the per-participant completion bit-set. Durations
// above this are rejected at challenge initialization.
const MaxDurationDays = 30

// SecondsPerDay is used to derive a challenge's end time from its duration.
const SecondsPerDay = 86400

// Challenge is the canonical record of one staking challenge
type Challenge struct {
	ID                     int64          `gorm:"primaryKey" json:"challengeId"`
	Authority              common.Address `gorm:"type:bytea;not null" json:"authority"`
	StepGoal               int64          `gorm:"not null" json:"stepGoal"`
	DurationDays           int            `gorm:"not null" json:"durationDays"`
	EntryAmount            int64          `gorm:"not null" json:"entryAmount"`
	MaxParticipants        int            `gorm:"not null" json:"maxParticipants"`
	ParticipantCount       int            `gorm:"not null;default:0" json:"participantCount"`
	TotalPool              int64          `gorm:"not null;default:0" json:"totalPool"`
	StartTime              int64          `gorm:"not null" json:"startTime"`
	EndTime                int64          `gorm:"not null" json:"endTime"`
	Active                 bool           `gorm:"not null;default:false" json:"active"`
	Completed              bool           `gorm:"not null;default:false" json:"completed"`
	SuccessfulParticipants int            `gorm:"not null;default:0" json:"successfulParticipants"`
	CreatedAt              time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt              time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// HasEnded reports whether the challenge window is over at the given time.
func (c *Challenge) HasEnded(now time.Time) bool {
	return now.Unix() >= c.EndTime
}

// IsFull reports whether the challenge reached its participant capacity.
func (c *Challenge) IsFull() bool {
	return c.ParticipantCount >= c.MaxParticipants
}

// VaultAddress returns the custody address holding this challenge's pool.
func (c *Challenge) VaultAddress() common.Address {
	return VaultAddress(c.ID)
}

// VaultAddress derives the custody address for a challenge. The derivation
// is a pure function of the challenge id so every operation, on any node,
// resolves the same vault without storing it.
func VaultAddress(challengeID int64) common.Address {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], uint64(challengeID))
	return common.BytesToAddress(crypto.Keccak256([]byte("vault"), id[:]))
}
