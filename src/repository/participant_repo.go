package repository

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create inserts a new participant record. The unique index on
// (challenge_id, wallet) makes a repeated enrollment fail here rather than
// through any handler-level check.
func (r *ParticipantRepository) Create(tx *gorm.DB, participant *domain.Participant) error {
	if err := tx.Create(participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewError(domain.ErrorCodeAlreadyEnrolled, err, domain.WithMsg("Wallet already enrolled in this challenge"))
		}
		return err
	}
	return nil
}

// FindByChallengeAndWallet retrieves one participant record.
func (r *ParticipantRepository) FindByChallengeAndWallet(challengeID int64, wallet common.Address) (*domain.Participant, error) {
	var participant domain.Participant
	err := r.db.Where("challenge_id = ? AND wallet = ?", challengeID, wallet).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Participant not found"))
		}
		return nil, err
	}
	return &participant, nil
}

// FindByChallenge retrieves all participant records of a challenge.
func (r *ParticipantRepository) FindByChallenge(challengeID int64) ([]*domain.Participant, error) {
	var participants []*domain.Participant
	if err := r.db.Where("challenge_id = ?", challengeID).Order("created_at ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// LockByChallengeAndWallet loads a participant record with an exclusive row
// lock. Verification and withdrawal mutations serialize on this lock.
func (r *ParticipantRepository) LockByChallengeAndWallet(tx *gorm.DB, challengeID int64, wallet common.Address) (*domain.Participant, error) {
	var participant domain.Participant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("challenge_id = ? AND wallet = ?", challengeID, wallet).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Participant not found"))
		}
		return nil, err
	}
	return &participant, nil
}

// CountFullySuccessful counts this challenge's participants that completed
// every day. The participant table is the authoritative enrollment index,
// so the tally never depends on a caller-supplied set of records.
func (r *ParticipantRepository) CountFullySuccessful(tx *gorm.DB, challengeID int64, durationDays int) (int, error) {
	var count int64
	err := tx.Model(&domain.Participant{}).
		Where("challenge_id = ? AND successful_days = ?", challengeID, durationDays).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Save persists progress and withdrawal mutations of a locked row.
func (r *ParticipantRepository) Save(tx *gorm.DB, participant *domain.Participant) error {
	return tx.Save(participant).Error
}
