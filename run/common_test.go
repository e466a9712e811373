package run

import (
	"testing"

	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/testutil"
	"gorm.io/gorm"
)

// setupTestStore creates a test database and run store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Run{})

	log := logger.NewTestLogger()
	store := NewSQLStore(db, log)

	return db, store
}
