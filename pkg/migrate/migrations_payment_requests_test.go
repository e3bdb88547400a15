package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disburse-labs/disburser-backend/pkg/migrate"
)

func TestPaymentRequestsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_requests.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payment_requests migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_requests",
		"FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE",
		"status payment_request_status NOT NULL DEFAULT 'unprocessed'",
		"amount NUMERIC(12,2) NOT NULL",
		"CHECK (amount >= 0)",
		"DROP TABLE IF EXISTS payment_requests",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumMigrationCoversAllStatuses(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_enums.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no enum migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, status := range []string{"'unapproved'", "'approved'", "'processing'", "'processed'", "'discarded'", "'unprocessed'", "'pending'", "'failed'"} {
		if !strings.Contains(content, status) {
			t.Errorf("missing enum value %s", status)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations should validate: %v", err)
	}
}
