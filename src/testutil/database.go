package testutil

import (
	"testing"

	"github.com/stepbuddy/backend/src/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB connects to the database named by TEST_DB_URL and migrates
// the challenge schema. Tests that need the store are skipped when the
// variable is unset.
func SetupTestDB(t *testing.T) *gorm.DB {
	dsn := GetEnv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&domain.Challenge{}, &domain.Participant{}, &domain.VaultAccount{}); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	return db
}

// CleanupTestDB removes all rows created by a test.
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	for _, table := range []string{"participants", "vault_accounts", "challenges"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Logf("Warning: Failed to clean up table %s: %v", table, err)
		}
	}
}
