package database

import (
	"strings"
	"testing"
)

func TestMigrationsFS_ContainsPairedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migration files")
	}

	ups := 0
	downs := 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected migration file: %s", e.Name())
		}
	}
	if ups != downs {
		t.Errorf("unpaired migrations: %d up, %d down", ups, downs)
	}
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	if _, err := NewMigrator("not-a-database-url"); err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
