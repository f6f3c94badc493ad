package env

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/localdb"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/settings"
)

// isolate points the .env and config lookups at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origFiles, origDirs := envFiles, configDirs
	envFiles = []string{filepath.Join(dir, ".env")}
	configDirs = func() []string { return []string{dir} }
	t.Cleanup(func() {
		envFiles, configDirs = origFiles, origDirs
		Value = EnvValue{}
	})
	return dir
}

func TestLoadEnvDefaults(t *testing.T) {
	isolate(t)

	if err := LoadEnv(nil); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if Value.TapeWidth != label.Tape29mm || Value.Template != label.TemplateHorizontal {
		t.Fatalf("tape/template got=%v/%v", Value.TapeWidth, Value.Template)
	}
	if Value.FontSize != 100 || Value.RasterThreshold != 70 || !Value.AutoCut {
		t.Fatalf("defaults got=%+v", Value)
	}
	if Value.PrinterIdentifier != output.DefaultIdentifier {
		t.Fatalf("identifier got=%q", Value.PrinterIdentifier)
	}
	if Value.Sources["TAPE_WIDTH"] != "default" {
		t.Fatalf("source got=%q want=default", Value.Sources["TAPE_WIDTH"])
	}
}

func TestLoadEnvPrecedence(t *testing.T) {
	dir := isolate(t)

	db, err := localdb.SetupDB(filepath.Join(dir, "env.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = localdb.Close() })
	sm := settings.NewSettingsManager(db)
	for k, v := range map[string]string{"TAPE_WIDTH": "38", "PREFIX": "Box", "TEMPLATE": "3"} {
		if err := sm.SetSetting(k, v); err != nil {
			t.Fatal(err)
		}
	}

	toml := "template = \"storage\"\nfont_size = 150\n"
	if err := os.WriteFile(filepath.Join(dir, "labelprint.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LABELPRINT_TAPE_WIDTH", "62")

	if err := LoadEnv(sm); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if Value.TapeWidth != label.Tape62mm {
		t.Fatalf("env override got=%v want=62mm", Value.TapeWidth)
	}
	if Value.Template != label.TemplateStorage || Value.FontSize != 150 {
		t.Fatalf("config file got template=%v font=%d", Value.Template, Value.FontSize)
	}
	if Value.Prefix != "Box" || Value.Sources["PREFIX"] != "settings" {
		t.Fatalf("settings fallback got=%q source=%q", Value.Prefix, Value.Sources["PREFIX"])
	}
}

func TestLoadEnvReadsDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LABELPRINT_DRY_RUN_MODE=1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("LABELPRINT_DRY_RUN_MODE") })

	if err := LoadEnv(nil); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if !Value.DryRunMode {
		t.Fatalf("DryRunMode got=false want=true")
	}
}

func TestLoadEnvInvalidKeepsPrevious(t *testing.T) {
	isolate(t)
	if err := LoadEnv(nil); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LABELPRINT_TAPE_WIDTH", "45")
	t.Setenv("LABELPRINT_FONT_SIZE", "9")
	t.Setenv("LABELPRINT_PRINTER_MODEL", "QL-9000")

	err := LoadEnv(nil)
	if err == nil {
		t.Fatalf("expected error for invalid values")
	}
	if !errors.Is(err, output.ErrUnknownModel) {
		t.Fatalf("got=%v want=%v", err, output.ErrUnknownModel)
	}
	if Value.TapeWidth != label.Tape29mm {
		t.Fatalf("Value should be untouched, got tape=%v", Value.TapeWidth)
	}
}

func TestPrinterConfig(t *testing.T) {
	isolate(t)
	t.Setenv("LABELPRINT_PRINTER_IDENTIFIER", "cups://QL700")
	t.Setenv("LABELPRINT_AUTO_CUT", "false")
	t.Setenv("LABELPRINT_DRY_RUN_MODE", "true")
	t.Setenv("LABELPRINT_PRINTER_MODEL", "QL-1100")

	if err := LoadEnv(nil); err != nil {
		t.Fatal(err)
	}
	cfg, err := PrinterConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != output.PrinterTypeCUPS || cfg.QueueName != "QL700" || cfg.Model != "QL-1100" {
		t.Fatalf("cfg got=%+v", cfg)
	}
	if !cfg.Raster.NoCut || !cfg.DryRun || cfg.OutputDir == "" {
		t.Fatalf("raster/dry-run got=%+v", cfg)
	}
}
