package domain

import (
	"math/bits"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Participant tracks one wallet's progress in one challenge. The
// (challenge_id, wallet) pair is unique at the store level, which is what
// rejects a second enrollment by the same wallet.
type Participant struct {
	ID             uuid.UUID      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"-"`
	Wallet         common.Address `gorm:"type:bytea;not null;uniqueIndex:idx_participants_challenge_wallet" json:"wallet"`
	ChallengeID    int64          `gorm:"not null;uniqueIndex:idx_participants_challenge_wallet;index" json:"challengeId"`
	CompletionMask int64          `gorm:"not null;default:0" json:"-"`
	SuccessfulDays int            `gorm:"not null;default:0" json:"successfulDays"`
	Withdrawn      bool           `gorm:"not null;default:false" json:"withdrawn"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// DayCompleted reports whether the given day has been verified successfully.
func (p *Participant) DayCompleted(day int) bool {
	if day < 0 || day >= MaxDurationDays {
		return false
	}
	return p.CompletionMask&(1<<uint(day)) != 0
}

// MarkDayCompleted sets the completion bit for a day and bumps the running
// count. Returns false without mutating when the day was already marked, so
// a repeated verification never double-counts. Bits only ever go 0 -> 1.
func (p *Participant) MarkDayCompleted(day int) bool {
	bit := int64(1) << uint(day)
	if p.CompletionMask&bit != 0 {
		return false
	}
	p.CompletionMask |= bit
	p.SuccessfulDays++
	return true
}

// CompletedAll reports whether every day of the challenge was verified.
// Partial completion earns nothing at withdrawal.
func (p *Participant) CompletedAll(durationDays int) bool {
	return p.SuccessfulDays == durationDays
}

// CompletionDays expands the bit mask into a day-indexed slice for API
// responses.
func (p *Participant) CompletionDays(durationDays int) []bool {
	days := make([]bool, durationDays)
	for i := range days {
		days[i] = p.DayCompleted(i)
	}
	return days
}

// CountCompletedDays recounts set bits in the mask. The stored
// SuccessfulDays counter must always equal this.
func (p *Participant) CountCompletedDays() int {
	return bits.OnesCount64(uint64(p.CompletionMask))
}
