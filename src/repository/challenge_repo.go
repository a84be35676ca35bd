package repository

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create inserts a new challenge record. The store rejects a duplicate
// identifier via the primary key.
func (r *ChallengeRepository) Create(challenge *domain.Challenge) error {
	if err := r.db.Create(challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Challenge identifier already exists"))
		}
		return err
	}
	return nil
}

// FindByID retrieves a challenge by its identifier.
func (r *ChallengeRepository) FindByID(id int64) (*domain.Challenge, error) {
	var challenge domain.Challenge
	if err := r.db.Where("id = ?", id).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Challenge not found"))
		}
		return nil, err
	}
	return &challenge, nil
}

// FindAll retrieves all challenge records, newest first.
func (r *ChallengeRepository) FindAll() ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	if err := r.db.Order("start_time DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

// FindEndedActive retrieves challenges owned by the given authority that
// are still active past their end time, i.e. ready to be tallied.
func (r *ChallengeRepository) FindEndedActive(authority common.Address, now int64) ([]*domain.Challenge, error) {
	var challenges []*domain.Challenge
	err := r.db.
		Where("authority = ? AND active = ? AND completed = ? AND end_time <= ?", authority, true, false, now).
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// Get reads a challenge through the given executor, so callers inside a
// transaction see their own snapshot without taking a row lock.
func (r *ChallengeRepository) Get(tx *gorm.DB, id int64) (*domain.Challenge, error) {
	var challenge domain.Challenge
	if err := tx.Where("id = ?", id).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Challenge not found"))
		}
		return nil, err
	}
	return &challenge, nil
}

// LockSharedByID loads a challenge with a shared row lock. Holders block
// tally's exclusive lock but not each other, so verifications on distinct
// participants of one challenge still commute.
func (r *ChallengeRepository) LockSharedByID(tx *gorm.DB, id int64) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("id = ?", id).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Challenge not found"))
		}
		return nil, err
	}
	return &challenge, nil
}

// LockByID loads a challenge with an exclusive row lock. Must be called
// inside a transaction; enrollment and tally on the same challenge
// serialize on this lock.
func (r *ChallengeRepository) LockByID(tx *gorm.DB, id int64) (*domain.Challenge, error) {
	var challenge domain.Challenge
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrorCodeResourceNotFound, err, domain.WithMsg("Challenge not found"))
		}
		return nil, err
	}
	return &challenge, nil
}

// Save persists counter and status mutations of a locked challenge row.
func (r *ChallengeRepository) Save(tx *gorm.DB, challenge *domain.Challenge) error {
	return tx.Save(challenge).Error
}
