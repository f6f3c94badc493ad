package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"github.com/ichi0g0y/ql-label-printer/internal/status"
	"go.uber.org/zap"
)

var ErrUnknownSetting = errors.New("unknown setting key")

type SettingType string

const (
	SettingTypePrinter SettingType = "printer"
	SettingTypeLabel   SettingType = "label"
	SettingTypeApp     SettingType = "app"
)

type Setting struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	HasValue    bool        `json:"has_value"`
}

type SettingsManager struct {
	db *sql.DB
}

func NewSettingsManager(db *sql.DB) *SettingsManager {
	return &SettingsManager{db: db}
}

// 設定の定義
var DefaultSettings = map[string]Setting{
	// プリンター設定
	"PRINTER_IDENTIFIER": {
		Key: "PRINTER_IDENTIFIER", Value: output.DefaultIdentifier, Type: SettingTypePrinter, Required: true,
		Description: "Printer identifier (usb://VID:PID, file:///dev/usb/lp0, cups://QUEUE, bt://MAC, dir:///path)",
	},
	"PRINTER_MODEL": {
		Key: "PRINTER_MODEL", Value: output.DefaultModel, Type: SettingTypePrinter, Required: false,
		Description: "Printer model (QL-500 ... QL-820NWB, QL-1050 ... QL-1115NWB)",
	},
	"DRY_RUN_MODE": {
		Key: "DRY_RUN_MODE", Value: "false", Type: SettingTypePrinter, Required: false,
		Description: "Write labels to the output directory instead of printing",
	},
	"RASTER_THRESHOLD": {
		Key: "RASTER_THRESHOLD", Value: "70", Type: SettingTypePrinter, Required: false,
		Description: "Black threshold in percent (1-100)",
	},
	"RASTER_DITHER": {
		Key: "RASTER_DITHER", Value: "false", Type: SettingTypePrinter, Required: false,
		Description: "Use Floyd-Steinberg dithering instead of a threshold",
	},
	"AUTO_CUT": {
		Key: "AUTO_CUT", Value: "true", Type: SettingTypePrinter, Required: false,
		Description: "Cut the tape after each label",
	},
	"BEST_QUALITY": {
		Key: "BEST_QUALITY", Value: "true", Type: SettingTypePrinter, Required: false,
		Description: "Bluetooth printers: enable best quality printing",
	},
	"DITHER": {
		Key: "DITHER", Value: "true", Type: SettingTypePrinter, Required: false,
		Description: "Bluetooth printers: enable dithering",
	},
	"BLACK_POINT": {
		Key: "BLACK_POINT", Value: "0", Type: SettingTypePrinter, Required: false,
		Description: "Bluetooth printers: black point threshold (0-255)",
	},
	"ROTATE_PRINT": {
		Key: "ROTATE_PRINT", Value: "false", Type: SettingTypePrinter, Required: false,
		Description: "Bluetooth printers: rotate output 180 degrees",
	},

	// ラベル設定
	"TAPE_WIDTH": {
		Key: "TAPE_WIDTH", Value: "29", Type: SettingTypeLabel, Required: true,
		Description: "Tape width in mm (29, 38, 50, 62)",
	},
	"TEMPLATE": {
		Key: "TEMPLATE", Value: "1", Type: SettingTypeLabel, Required: false,
		Description: "Default label template (1-9)",
	},
	"FONT_PATH": {
		Key: "FONT_PATH", Value: "", Type: SettingTypeLabel, Required: false,
		Description: "TrueType/OpenType font file (empty: built-in Go Bold)",
	},
	"FONT_SIZE": {
		Key: "FONT_SIZE", Value: "100", Type: SettingTypeLabel, Required: false,
		Description: "Maximum font size (40-250)",
	},
	"PREFIX": {
		Key: "PREFIX", Value: "", Type: SettingTypeLabel, Required: false,
		Description: "Prefix added before QR label text (e.g. Box)",
	},
	"TEXT_ONLY_PREFIX": {
		Key: "TEXT_ONLY_PREFIX", Value: "", Type: SettingTypeLabel, Required: false,
		Description: "Prefix added before text-only label text",
	},

	// 動作設定
	"DEBUG_OUTPUT": {
		Key: "DEBUG_OUTPUT", Value: "false", Type: SettingTypeApp, Required: false,
		Description: "Enable debug logging",
	},
	"LOG_FILE": {
		Key: "LOG_FILE", Value: "", Type: SettingTypeApp, Required: false,
		Description: "Rotating log file path (empty: stderr only)",
	},
	"HISTORY_ENABLED": {
		Key: "HISTORY_ENABLED", Value: "true", Type: SettingTypeApp, Required: false,
		Description: "Record printed labels in the history table",
	},
}

// Keys returns the known setting keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(DefaultSettings))
	for k := range DefaultSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// 機能の有効性チェック
type FeatureStatus struct {
	PrinterConfigured bool     `json:"printer_configured"`
	PrinterConnected  bool     `json:"printer_connected"`
	MissingSettings   []string `json:"missing_settings"`
	Warnings          []string `json:"warnings"`
}

func (sm *SettingsManager) CheckFeatureStatus() (*FeatureStatus, error) {
	fs := &FeatureStatus{
		MissingSettings:  []string{},
		Warnings:         []string{},
		PrinterConnected: status.IsPrinterConnected(),
	}

	for _, key := range Keys() {
		if !DefaultSettings[key].Required {
			continue
		}
		if val, err := sm.GetSetting(key); err != nil || val == "" {
			fs.MissingSettings = append(fs.MissingSettings, key)
		}
	}

	id, _ := sm.GetSetting("PRINTER_IDENTIFIER")
	if _, err := output.ParseIdentifier(id); err == nil && id != "" {
		fs.PrinterConfigured = true
	} else if id != "" {
		fs.Warnings = append(fs.Warnings, fmt.Sprintf("PRINTER_IDENTIFIER %q is not valid", id))
	}

	if dryRun, _ := sm.GetSetting("DRY_RUN_MODE"); dryRun == "true" {
		fs.Warnings = append(fs.Warnings, "DRY_RUN_MODE is enabled - no actual printing will occur")
	}
	if fontPath, _ := sm.GetSetting("FONT_PATH"); fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			fs.Warnings = append(fs.Warnings, fmt.Sprintf("FONT_PATH %s is not readable", fontPath))
		}
	}

	return fs, nil
}

// CRUD操作
func (sm *SettingsManager) GetSetting(key string) (string, error) {
	var value string
	err := sm.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		// デフォルト値を返す
		if defaultSetting, exists := DefaultSettings[key]; exists {
			return defaultSetting.Value, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return value, err
}

// HasSetting reports whether key was stored explicitly rather than defaulted.
func (sm *SettingsManager) HasSetting(key string) bool {
	var existing string
	return sm.db.QueryRow("SELECT key FROM settings WHERE key = ?", key).Scan(&existing) == nil
}

func (sm *SettingsManager) SetSetting(key, value string) error {
	defaultSetting, exists := DefaultSettings[key]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if err := ValidateSetting(key, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	_, err := sm.db.Exec(`
		INSERT INTO settings (key, value, setting_type, is_required, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
		string(defaultSetting.Type),
		defaultSetting.Required,
		defaultSetting.Description,
	)
	if err != nil {
		return err
	}
	logger.Debug("Setting updated", zap.String("key", key), zap.String("value", value))
	return nil
}

func (sm *SettingsManager) GetAllSettings() (map[string]Setting, error) {
	rows, err := sm.db.Query(`
		SELECT key, value, setting_type, is_required, description, updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]Setting)
	for rows.Next() {
		var s Setting
		var settingType string
		var description sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &settingType, &s.Required, &description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Type = SettingType(settingType)
		s.Description = description.String
		s.HasValue = s.Value != ""
		settings[s.Key] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DBにない設定はデフォルト値で補完
	for key, defaultSetting := range DefaultSettings {
		if _, exists := settings[key]; !exists {
			defaultSetting.HasValue = defaultSetting.Value != ""
			settings[key] = defaultSetting
		}
	}

	return settings, nil
}

// バリデーション
func ValidateSetting(key, value string) error {
	switch key {
	case "PRINTER_IDENTIFIER":
		if _, err := output.ParseIdentifier(value); err != nil {
			return err
		}
	case "PRINTER_MODEL":
		if _, err := output.LookupModel(value); err != nil {
			return err
		}
	case "TAPE_WIDTH":
		if _, err := label.ParseTapeWidth(value); err != nil {
			return err
		}
	case "TEMPLATE":
		if _, err := label.ParseTemplate(value); err != nil {
			return err
		}
	case "FONT_SIZE":
		if val, err := strconv.Atoi(value); err != nil || val < label.MinFontSize || val > label.MaxFontSize {
			return fmt.Errorf("must be integer between %d and %d", label.MinFontSize, label.MaxFontSize)
		}
	case "RASTER_THRESHOLD":
		if val, err := strconv.ParseFloat(value, 64); err != nil || val <= 0 || val > 100 {
			return fmt.Errorf("must be a number between 1 and 100")
		}
	case "BLACK_POINT":
		if val, err := strconv.Atoi(value); err != nil || val < 0 || val > 255 {
			return fmt.Errorf("must be integer between 0 and 255")
		}
	case "FONT_PATH":
		if value != "" {
			if _, err := os.Stat(value); err != nil {
				return fmt.Errorf("font file not found: %s", value)
			}
		}
	case "DRY_RUN_MODE", "RASTER_DITHER", "AUTO_CUT", "BEST_QUALITY", "DITHER", "ROTATE_PRINT", "DEBUG_OUTPUT", "HISTORY_ENABLED":
		if value != "true" && value != "false" {
			return fmt.Errorf("must be 'true' or 'false'")
		}
	}
	return nil
}

// 初期設定のセットアップ
func (sm *SettingsManager) InitializeDefaultSettings() error {
	for _, key := range Keys() {
		if sm.HasSetting(key) {
			continue
		}
		if err := sm.SetSetting(key, DefaultSettings[key].Value); err != nil {
			return fmt.Errorf("failed to initialize setting %s: %w", key, err)
		}
	}
	return nil
}
