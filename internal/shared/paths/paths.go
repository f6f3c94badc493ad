package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "ql-label-printer"

// dataDirOverride is set by SetDataDir (tests, -data-dir flag).
var dataDirOverride string

// SetDataDir forces all data paths under dir.
func SetDataDir(dir string) {
	dataDirOverride = dir
}

// GetDataDir returns $XDG_DATA_HOME/ql-label-printer unless overridden.
func GetDataDir() string {
	if dataDirOverride != "" {
		return dataDirOverride
	}
	return filepath.Join(xdg.DataHome, appName)
}

// GetConfigDir returns $XDG_CONFIG_HOME/ql-label-printer.
func GetConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// GetDBPath returns the sqlite file holding settings and print history.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "local.db")
}

// GetOutputDir returns the directory archived label PNGs are written to.
func GetOutputDir() string {
	return filepath.Join(GetDataDir(), "output")
}

// GetLogPath returns the default rotating log file location.
func GetLogPath() string {
	return filepath.Join(GetDataDir(), "logs", "labelprint.log")
}

// EnsureDataDirs creates the data, output and log directories.
func EnsureDataDirs() error {
	for _, dir := range []string{GetDataDir(), GetOutputDir(), filepath.Dir(GetLogPath())} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
