package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("check-in recorded", "site", "Kwinana Substation")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "check-in recorded" {
		t.Errorf("msg = %v, want %q", entry["msg"], "check-in recorded")
	}
	if entry["site"] != "Kwinana Substation" {
		t.Errorf("site = %v, want %q", entry["site"], "Kwinana Substation")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestSetup_DebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("should not appear")

	if buf.Len() != 0 {
		t.Errorf("debug log was written: %s", buf.String())
	}
}
