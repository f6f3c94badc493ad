package output

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// DefaultIdentifier is a Brother QL-700 on USB.
const DefaultIdentifier = "usb://0x04f9:0x2042"

var ErrInvalidIdentifier = errors.New("invalid printer identifier")

// ParseIdentifier turns a printer identifier into a backend config:
//
//	usb://0x04f9:0x2042[/SERIAL]
//	file:///dev/usb/lp0  (or a bare /dev/... path)
//	cups://QUEUE
//	bt://AA:BB:CC:DD:EE:FF
//	dir:///path/to/output
func ParseIdentifier(id string) (PrinterConfig, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultIdentifier
	}
	cfg := PrinterConfig{Identifier: id}

	if strings.HasPrefix(id, "/dev/") {
		cfg.Type = PrinterTypeDevice
		cfg.DevicePath = id
		return cfg, nil
	}

	scheme, rest, ok := strings.Cut(id, "://")
	if !ok || rest == "" {
		return cfg, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	switch strings.ToLower(scheme) {
	case "usb":
		cfg.Type = PrinterTypeUSB
		ids, serial, _ := strings.Cut(rest, "/")
		vid, pid, ok := strings.Cut(ids, ":")
		if !ok {
			return cfg, fmt.Errorf("%w: %q: want usb://VID:PID", ErrInvalidIdentifier, id)
		}
		v, err := parseUSBID(vid)
		if err != nil {
			return cfg, fmt.Errorf("%w: vendor id %q: %v", ErrInvalidIdentifier, vid, err)
		}
		p, err := parseUSBID(pid)
		if err != nil {
			return cfg, fmt.Errorf("%w: product id %q: %v", ErrInvalidIdentifier, pid, err)
		}
		cfg.VendorID, cfg.ProductID, cfg.Serial = v, p, serial
	case "file":
		cfg.Type = PrinterTypeDevice
		cfg.DevicePath = rest
	case "cups":
		cfg.Type = PrinterTypeCUPS
		cfg.QueueName = rest
	case "bt", "ble", "bluetooth":
		cfg.Type = PrinterTypeBluetooth
		cfg.BluetoothAddress = rest
	case "dir":
		cfg.Type = PrinterTypeFile
		cfg.OutputDir = rest
	default:
		return cfg, fmt.Errorf("%w: unknown scheme %q", ErrInvalidIdentifier, scheme)
	}
	return cfg, nil
}

func parseUSBID(s string) (gousb.ID, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(n), nil
}
