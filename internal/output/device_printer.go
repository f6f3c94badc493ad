package output

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

// DevicePrinter writes raster data to a kernel printer device such as
// /dev/usb/lp0 (usblp).
type DevicePrinter struct {
	path string
	f    *os.File
}

func NewDevicePrinter(config PrinterConfig) (*DevicePrinter, error) {
	if config.DevicePath == "" {
		return nil, fmt.Errorf("device path is required")
	}
	return &DevicePrinter{path: config.DevicePath}, nil
}

func (p *DevicePrinter) Connect(ctx context.Context) error {
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPrinterNotFound, p.path)
		}
		return fmt.Errorf("open %s: %w", p.path, err)
	}
	p.f = f
	logger.Info("Device printer opened", zap.String("path", p.path))
	return nil
}

// Send writes the whole stream. The usblp driver does not give us a
// reliable status channel, so completion is not awaited.
func (p *DevicePrinter) Send(ctx context.Context, job RasterJob) error {
	if p.f == nil {
		return fmt.Errorf("printer not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.f.Write(job.Data); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}

func (p *DevicePrinter) Disconnect() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}

func (p *DevicePrinter) Type() PrinterType { return PrinterTypeDevice }

func (p *DevicePrinter) IsConnected() bool { return p.f != nil }
