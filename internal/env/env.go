package env

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/settings"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/paths"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type EnvValue struct {
	PrinterIdentifier string
	PrinterModel      string
	DryRunMode        bool
	RasterThreshold   float64
	RasterDither      bool
	AutoCut           bool

	// Bluetooth (catprinter) options
	BestQuality bool
	Dither      bool
	BlackPoint  float32
	RotatePrint bool

	TapeWidth      label.TapeWidth
	Template       label.Template
	FontPath       string
	FontSize       int
	Prefix         string
	TextOnlyPrefix string

	DebugMode      bool
	LogFile        string
	HistoryEnabled bool

	// Sources records which layer supplied each key: "config", "settings" or "default".
	Sources map[string]string
}

var Value EnvValue

// envFiles and configDirs are swapped in tests.
var (
	envFiles   = []string{".env"}
	configDirs = func() []string { return []string{".", paths.GetConfigDir()} }
)

const (
	configName = "labelprint"
	envPrefix  = "LABELPRINT"
)

// LoadEnv fills Value from .env, labelprint.toml and LABELPRINT_* variables,
// falling back to the settings store and then to the built-in defaults.
// sm may be nil.
func LoadEnv(sm *settings.SettingsManager) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	for _, dir := range configDirs() {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		logger.Debug("Config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &loader{v: v, sm: sm, sources: make(map[string]string)}
	next := EnvValue{
		PrinterIdentifier: l.str("PRINTER_IDENTIFIER"),
		PrinterModel:      l.str("PRINTER_MODEL"),
		DryRunMode:        l.boolean("DRY_RUN_MODE"),
		RasterThreshold:   l.float("RASTER_THRESHOLD"),
		RasterDither:      l.boolean("RASTER_DITHER"),
		AutoCut:           l.boolean("AUTO_CUT"),
		BestQuality:       l.boolean("BEST_QUALITY"),
		Dither:            l.boolean("DITHER"),
		BlackPoint:        float32(l.float("BLACK_POINT")),
		RotatePrint:       l.boolean("ROTATE_PRINT"),
		FontPath:          l.str("FONT_PATH"),
		FontSize:          l.integer("FONT_SIZE"),
		Prefix:            l.str("PREFIX"),
		TextOnlyPrefix:    l.str("TEXT_ONLY_PREFIX"),
		DebugMode:         l.boolean("DEBUG_OUTPUT"),
		LogFile:           l.str("LOG_FILE"),
		HistoryEnabled:    l.boolean("HISTORY_ENABLED"),
		Sources:           l.sources,
	}
	next.TapeWidth = l.tape("TAPE_WIDTH")
	next.Template = l.template("TEMPLATE")

	if _, err := output.ParseIdentifier(next.PrinterIdentifier); err != nil {
		l.errs = append(l.errs, fmt.Errorf("PRINTER_IDENTIFIER: %w", err))
	}
	if _, err := output.LookupModel(next.PrinterModel); err != nil {
		l.errs = append(l.errs, fmt.Errorf("PRINTER_MODEL: %w", err))
	}
	if next.FontSize < label.MinFontSize || next.FontSize > label.MaxFontSize {
		l.errs = append(l.errs, fmt.Errorf("FONT_SIZE: must be between %d and %d", label.MinFontSize, label.MaxFontSize))
	}
	if err := errors.Join(l.errs...); err != nil {
		return err
	}

	Value = next
	return nil
}

// PrinterConfig builds the output configuration from Value.
func PrinterConfig() (output.PrinterConfig, error) {
	cfg, err := output.ParseIdentifier(Value.PrinterIdentifier)
	if err != nil {
		return output.PrinterConfig{}, err
	}
	cfg.Model = Value.PrinterModel
	cfg.DryRun = Value.DryRunMode
	cfg.Raster = output.RasterOptions{
		Threshold: Value.RasterThreshold,
		Dither:    Value.RasterDither,
		NoCut:     !Value.AutoCut,
	}
	cfg.BestQuality = Value.BestQuality
	cfg.Dither = Value.Dither
	cfg.BlackPoint = Value.BlackPoint
	cfg.RotatePrint = Value.RotatePrint
	if cfg.DryRun && cfg.OutputDir == "" {
		cfg.OutputDir = paths.GetOutputDir()
	}
	return cfg, nil
}

type loader struct {
	v       *viper.Viper
	sm      *settings.SettingsManager
	sources map[string]string
	errs    []error
}

// lookup: config/env > settings DB > default
func (l *loader) lookup(key string) string {
	name := strings.ToLower(key)
	if l.v.IsSet(name) {
		l.sources[key] = "config"
		return strings.TrimSpace(l.v.GetString(name))
	}
	if l.sm != nil {
		val, err := l.sm.GetSetting(key)
		if err == nil {
			l.sources[key] = "settings"
			return val
		}
		logger.Warn("Failed to read setting", zap.String("key", key), zap.Error(err))
	}
	l.sources[key] = "default"
	return settings.DefaultSettings[key].Value
}

func (l *loader) fail(key, val string, err error) {
	l.errs = append(l.errs, fmt.Errorf("%s=%q: %w", key, val, err))
}

func (l *loader) str(key string) string {
	return l.lookup(key)
}

func (l *loader) boolean(key string) bool {
	val := l.lookup(key)
	b, err := strconv.ParseBool(val)
	if err != nil {
		l.fail(key, val, err)
	}
	return b
}

func (l *loader) integer(key string) int {
	val := l.lookup(key)
	n, err := strconv.Atoi(val)
	if err != nil {
		l.fail(key, val, err)
	}
	return n
}

func (l *loader) float(key string) float64 {
	val := l.lookup(key)
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		l.fail(key, val, err)
	}
	return f
}

func (l *loader) tape(key string) label.TapeWidth {
	val := l.lookup(key)
	t, err := label.ParseTapeWidth(val)
	if err != nil {
		l.fail(key, val, err)
	}
	return t
}

func (l *loader) template(key string) label.Template {
	val := l.lookup(key)
	t, err := label.ParseTemplate(val)
	if err != nil {
		l.fail(key, val, err)
	}
	return t
}
