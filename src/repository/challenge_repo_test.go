package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"github.com/stepbuddy/backend/src/testutil"
	"gorm.io/gorm"
)

func testChallenge(id int64) *domain.Challenge {
	start := time.Now().Unix()
	return &domain.Challenge{
		ID:              id,
		Authority:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		StepGoal:        10000,
		DurationDays:    7,
		EntryAmount:     1000,
		MaxParticipants: 10,
		StartTime:       start,
		EndTime:         start + 7*domain.SecondsPerDay,
		Active:          true,
	}
}

func TestChallengeRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChallengeRepository(db)

	challenge := testChallenge(1)
	if err := repo.Create(challenge); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindByID(1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if found.Authority != challenge.Authority {
		t.Errorf("Expected authority %s, got %s", challenge.Authority.Hex(), found.Authority.Hex())
	}
	if found.EndTime != challenge.StartTime+7*domain.SecondsPerDay {
		t.Errorf("Expected end time %d, got %d", challenge.StartTime+7*domain.SecondsPerDay, found.EndTime)
	}
	if !found.Active || found.Completed {
		t.Errorf("Expected active, not completed; got active=%v completed=%v", found.Active, found.Completed)
	}
}

func TestChallengeRepository_Create_DuplicateID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChallengeRepository(db)

	if err := repo.Create(testChallenge(7)); err != nil {
		t.Fatalf("First Create failed: %v", err)
	}

	err := repo.Create(testChallenge(7))
	if err == nil {
		t.Fatal("Expected error when creating duplicate challenge id, but got none")
	}

	var domainErr domain.DomainError
	if !errors.As(err, &domainErr) {
		t.Errorf("Expected a domain error, got %T", err)
	}
}

func TestChallengeRepository_FindByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChallengeRepository(db)

	_, err := repo.FindByID(999)
	if !errors.Is(err, domain.NewError(domain.ErrorCodeResourceNotFound, gorm.ErrRecordNotFound)) {
		t.Errorf("Expected resource-not-found domain error, got %v", err)
	}
}

func TestChallengeRepository_FindEndedActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewChallengeRepository(db)
	authority := common.HexToAddress("0x2222222222222222222222222222222222222222")
	now := time.Now().Unix()

	ended := testChallenge(10)
	ended.Authority = authority
	ended.StartTime = now - 10*domain.SecondsPerDay
	ended.EndTime = now - 1
	if err := repo.Create(ended); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	running := testChallenge(11)
	running.Authority = authority
	if err := repo.Create(running); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	otherOwner := testChallenge(12)
	otherOwner.StartTime = now - 10*domain.SecondsPerDay
	otherOwner.EndTime = now - 1
	if err := repo.Create(otherOwner); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.FindEndedActive(authority, now)
	if err != nil {
		t.Fatalf("FindEndedActive failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Expected 1 ended active challenge, got %d", len(found))
	}
	if found[0].ID != 10 {
		t.Errorf("Expected challenge 10, got %d", found[0].ID)
	}
}
