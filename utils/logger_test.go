package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSONWithRunID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: LevelInfo, Format: FormatJSON, Output: &buf, RunID: "run-1"})
	log.With("city", "mumbai").Info("loaded table", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec["run_id"] != "run-1" || rec["city"] != "mumbai" || rec["msg"] != "loaded table" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLogAtRespectsLevel(t *testing.T) {
	tests := []struct {
		level   string
		logged  bool
		wantLvl string
	}{
		{LevelDebug, false, ""},
		{LevelInfo, false, ""},
		{LevelWarn, true, "WARN"},
		{LevelError, true, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(LogConfig{Level: LevelWarn, Format: FormatText, Output: &buf})
			log.LogAt(tt.level, "message")
			if got := buf.Len() > 0; got != tt.logged {
				t.Fatalf("logged = %v, want %v", got, tt.logged)
			}
			if tt.logged && !strings.Contains(buf.String(), "level="+tt.wantLvl) {
				t.Errorf("wrong level in %q", buf.String())
			}
		})
	}
}
