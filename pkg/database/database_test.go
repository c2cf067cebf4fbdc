package database

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{
		Driver:       "sqlite",
		MaxOpenConns: 1,
		SQLitePath:   "file:database_test?mode=memory&cache=shared",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for _, table := range []string{"users", "reports", "notifications", "audit_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// Migrate must be re-runnable on every boot.
	if err := Migrate(db, zap.NewNop()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
