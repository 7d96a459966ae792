package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8099" || cfg.HorizonDays != 7 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}

	info, err := os.Stat(path)
	if err == nil && info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen: ":9000"
timezone: "UTC"
horizon_days: 14
account_priority: [work, personal]
active_hours:
  monday: {start: "08:00", end: "18:00"}
  saturday: {start: "10:00", end: "16:00"}
min_gap_minutes: 45
movable_patterns:
  - '^\[flex\]'
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" || cfg.HorizonDays != 14 || cfg.MinGapMinutes != 45 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatal(err)
	}
	mon, ok := ec.ActiveHours[time.Monday]
	if !ok || mon.Start.Hour != 8 || mon.End.Hour != 18 {
		t.Errorf("monday hours = %+v ok=%v", mon, ok)
	}
	if _, ok := ec.ActiveHours[time.Sunday]; ok {
		t.Error("sunday must not have hours")
	}
	if len(ec.AccountPriority) != 2 || ec.AccountPriority[0] != "work" {
		t.Errorf("account priority = %v", ec.AccountPriority)
	}
}

func TestLoad_RejectsBadWeekday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "active_hours:\n  funday: {start: \"08:00\", end: \"18:00\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestLoad_RejectsBadTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "active_hours:\n  monday: {start: \"late\", end: \"18:00\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unparseable time")
	}
}
