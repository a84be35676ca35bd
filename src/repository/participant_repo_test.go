package repository

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/testutil"
	"gorm.io/gorm"
)

func TestParticipantRepository_Create_DuplicateEnrollment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	challengeRepo := NewChallengeRepository(db)
	repo := NewParticipantRepository(db)

	if err := challengeRepo.Create(testChallenge(20)); err != nil {
		t.Fatalf("Create challenge failed: %v", err)
	}

	wallet := common.HexToAddress("0x3333333333333333333333333333333333333333")

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(tx, &domain.Participant{Wallet: wallet, ChallengeID: 20})
	})
	if err != nil {
		t.Fatalf("First enrollment failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(tx, &domain.Participant{Wallet: wallet, ChallengeID: 20})
	})
	if !errors.Is(err, domain.ErrAlreadyEnrolled) {
		t.Errorf("Expected ErrAlreadyEnrolled for duplicate enrollment, got %v", err)
	}

	// Same wallet in a different challenge is fine.
	if err := challengeRepo.Create(testChallenge(21)); err != nil {
		t.Fatalf("Create challenge failed: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.Create(tx, &domain.Participant{Wallet: wallet, ChallengeID: 21})
	})
	if err != nil {
		t.Errorf("Enrollment in second challenge failed: %v", err)
	}
}

func TestParticipantRepository_CountFullySuccessful(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	challengeRepo := NewChallengeRepository(db)
	repo := NewParticipantRepository(db)

	challenge := testChallenge(30)
	challenge.DurationDays = 3
	if err := challengeRepo.Create(challenge); err != nil {
		t.Fatalf("Create challenge failed: %v", err)
	}

	perfect := &domain.Participant{
		Wallet:      common.HexToAddress("0x4444444444444444444444444444444444444444"),
		ChallengeID: 30,
	}
	for day := 0; day < 3; day++ {
		perfect.MarkDayCompleted(day)
	}

	partial := &domain.Participant{
		Wallet:      common.HexToAddress("0x5555555555555555555555555555555555555555"),
		ChallengeID: 30,
	}
	partial.MarkDayCompleted(0)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(tx, perfect); err != nil {
			return err
		}
		return repo.Create(tx, partial)
	})
	if err != nil {
		t.Fatalf("Enrollment failed: %v", err)
	}

	count, err := repo.CountFullySuccessful(db, 30, 3)
	if err != nil {
		t.Fatalf("CountFullySuccessful failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 fully successful participant, got %d", count)
	}
}
