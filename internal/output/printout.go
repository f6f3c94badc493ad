package output

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"github.com/ichi0g0y/ql-label-printer/internal/status"
	"go.uber.org/zap"
)

// Driver is the printing capability the submitter depends on.
// One call prints one copy of one label and blocks until the printer is done.
type Driver interface {
	PrintImage(ctx context.Context, img image.Image, tape label.TapeWidth) error
}

// Printer implements Driver on top of a PrinterBackend.
type Printer struct {
	config     PrinterConfig
	newBackend func(PrinterConfig) (PrinterBackend, error)
	mu         sync.Mutex
}

func NewPrinter(config PrinterConfig) *Printer {
	return &Printer{config: config, newBackend: createPrinterBackend}
}

func (p *Printer) Config() PrinterConfig { return p.config }

// createPrinterBackend は設定からプリンターバックエンドを作成
func createPrinterBackend(config PrinterConfig) (PrinterBackend, error) {
	if config.DryRun {
		if config.OutputDir == "" {
			return nil, fmt.Errorf("dry-run mode needs an output directory")
		}
		return NewFilePrinter(config)
	}

	switch config.Type {
	case PrinterTypeUSB:
		return NewUSBPrinter(config)
	case PrinterTypeDevice:
		return NewDevicePrinter(config)
	case PrinterTypeCUPS:
		return NewCUPSPrinter(config)
	case PrinterTypeBluetooth:
		return NewBluetoothPrinter(config)
	case PrinterTypeFile:
		return NewFilePrinter(config)
	default:
		return nil, fmt.Errorf("unknown printer type: %q", config.Type)
	}
}

// PrintImage encodes img and sends it to a freshly connected backend.
//
// STRATEGY: Connect-Print-Disconnect for every call. The printer is
// enumerated again each time so unplugging between labels is reported
// as ErrPrinterNotFound on the next call.
func (p *Printer) PrintImage(ctx context.Context, img image.Image, tape label.TapeWidth) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := p.config.Raster
	if opts.Model == "" {
		opts.Model = p.config.Model
	}
	data, err := EncodeRaster(img, tape, opts)
	if err != nil {
		return err
	}

	backend, err := p.newBackend(p.config)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := backend.Connect(ctx); err != nil {
		backend.Disconnect()
		status.SetPrinterConnected(false)
		status.SetLastError(err)
		return err
	}
	status.SetPrinterConnected(backend.IsConnected())
	defer func() {
		if err := backend.Disconnect(); err != nil {
			logger.Warn("Printer disconnect failed", zap.Error(err))
		}
	}()

	if err := backend.Send(ctx, RasterJob{Image: img, Tape: tape, Data: data}); err != nil {
		status.SetLastError(err)
		return err
	}
	status.SetLastError(nil)

	logger.Debug("Label sent",
		zap.String("backend", string(backend.Type())),
		zap.String("tape", tape.String()),
		zap.Int("raster_bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
