package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ichi0g0y/ql-label-printer/internal/localdb"
)

func newTestManager(t *testing.T) *SettingsManager {
	t.Helper()
	db, err := localdb.SetupDB(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("SetupDB error: %v", err)
	}
	t.Cleanup(func() { _ = localdb.Close() })
	return NewSettingsManager(db)
}

func TestGetSettingDefaults(t *testing.T) {
	sm := newTestManager(t)

	got, err := sm.GetSetting("TAPE_WIDTH")
	if err != nil || got != "29" {
		t.Fatalf("TAPE_WIDTH got=%q err=%v want=29", got, err)
	}
	got, err = sm.GetSetting("PRINTER_IDENTIFIER")
	if err != nil || got != "usb://0x04f9:0x2042" {
		t.Fatalf("PRINTER_IDENTIFIER got=%q err=%v", got, err)
	}
	if _, err := sm.GetSetting("NOPE"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("unknown key got=%v want=%v", err, ErrUnknownSetting)
	}
}

func TestSetSettingUpsert(t *testing.T) {
	sm := newTestManager(t)

	if err := sm.SetSetting("TAPE_WIDTH", "62"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}
	if err := sm.SetSetting("TAPE_WIDTH", "38"); err != nil {
		t.Fatalf("SetSetting second write error: %v", err)
	}
	got, _ := sm.GetSetting("TAPE_WIDTH")
	if got != "38" {
		t.Fatalf("got=%q want=38", got)
	}
	if !sm.HasSetting("TAPE_WIDTH") || sm.HasSetting("PREFIX") {
		t.Fatalf("HasSetting mismatch")
	}
}

func TestSetSettingRejectsInvalid(t *testing.T) {
	sm := newTestManager(t)

	tests := []struct {
		key, value string
	}{
		{"TAPE_WIDTH", "45"},
		{"TEMPLATE", "12"},
		{"FONT_SIZE", "20"},
		{"FONT_SIZE", "abc"},
		{"RASTER_THRESHOLD", "0"},
		{"BLACK_POINT", "300"},
		{"DRY_RUN_MODE", "yes"},
		{"PRINTER_IDENTIFIER", "tcp://10.0.0.1"},
		{"PRINTER_MODEL", "QL-9000"},
		{"FONT_PATH", filepath.Join(t.TempDir(), "missing.ttf")},
	}
	for _, tt := range tests {
		if err := sm.SetSetting(tt.key, tt.value); err == nil {
			t.Fatalf("SetSetting(%s=%q) expected error", tt.key, tt.value)
		}
	}
	if err := sm.SetSetting("UNKNOWN", "1"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("got=%v want=%v", err, ErrUnknownSetting)
	}
}

func TestValidateSettingAccepts(t *testing.T) {
	font := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(font, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key, value string
	}{
		{"TAPE_WIDTH", "62mm"},
		{"TEMPLATE", "storage"},
		{"FONT_SIZE", "250"},
		{"RASTER_THRESHOLD", "55.5"},
		{"PRINTER_IDENTIFIER", "cups://Brother_QL_700"},
		{"FONT_PATH", font},
		{"FONT_PATH", ""},
		{"HISTORY_ENABLED", "false"},
		{"PREFIX", "Box"},
		{"PRINTER_MODEL", "QL-1110NWB"},
	}
	for _, tt := range tests {
		if err := ValidateSetting(tt.key, tt.value); err != nil {
			t.Fatalf("ValidateSetting(%s=%q) error: %v", tt.key, tt.value, err)
		}
	}
}

func TestInitializeDefaultSettingsKeepsExisting(t *testing.T) {
	sm := newTestManager(t)

	if err := sm.SetSetting("PREFIX", "Box"); err != nil {
		t.Fatal(err)
	}
	if err := sm.InitializeDefaultSettings(); err != nil {
		t.Fatalf("InitializeDefaultSettings error: %v", err)
	}

	all, err := sm.GetAllSettings()
	if err != nil {
		t.Fatalf("GetAllSettings error: %v", err)
	}
	if len(all) != len(DefaultSettings) {
		t.Fatalf("len got=%d want=%d", len(all), len(DefaultSettings))
	}
	if all["PREFIX"].Value != "Box" {
		t.Fatalf("PREFIX got=%q want=Box", all["PREFIX"].Value)
	}
	if all["TAPE_WIDTH"].Type != SettingTypeLabel || !all["TAPE_WIDTH"].Required {
		t.Fatalf("TAPE_WIDTH metadata got=%+v", all["TAPE_WIDTH"])
	}
}

func TestCheckFeatureStatus(t *testing.T) {
	sm := newTestManager(t)

	if err := sm.SetSetting("DRY_RUN_MODE", "true"); err != nil {
		t.Fatal(err)
	}
	fs, err := sm.CheckFeatureStatus()
	if err != nil {
		t.Fatal(err)
	}
	if !fs.PrinterConfigured {
		t.Fatalf("default identifier should count as configured")
	}
	if len(fs.MissingSettings) != 0 {
		t.Fatalf("missing got=%v", fs.MissingSettings)
	}
	if len(fs.Warnings) != 1 {
		t.Fatalf("warnings got=%v want dry-run warning", fs.Warnings)
	}
}
