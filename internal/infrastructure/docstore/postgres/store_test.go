package postgres

import (
	"os"
	"testing"

	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/docstoretest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Runs against a live server only when TEMPO_TEST_POSTGRES_DSN is set.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("TEMPO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEMPO_TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	docstoretest.Run(t, func(t *testing.T) docstore.Store {
		if err := db.Exec("TRUNCATE documents").Error; err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return New(db)
	})
}
