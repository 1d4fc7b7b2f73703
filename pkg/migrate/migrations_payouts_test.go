package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPayoutsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_garage_payouts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payouts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS garage_payouts",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_garage_payouts_order_standard",
		"WHERE payout_type = 'standard'",
		"CREATE TABLE IF NOT EXISTS payout_disputes",
		"CREATE TABLE IF NOT EXISTS admin_audit_logs",
		"CREATE INDEX IF NOT EXISTS idx_garage_payouts_garage_status",
		"DROP TABLE IF EXISTS garage_payouts",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
