package output

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

var fileSeq atomic.Uint64

// FilePrinter is the dry-run backend: every job is written to dir as a PNG
// of the label and the raster stream that would have been sent.
type FilePrinter struct {
	dir   string
	ready bool
}

func NewFilePrinter(config PrinterConfig) (*FilePrinter, error) {
	if config.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	return &FilePrinter{dir: config.OutputDir}, nil
}

func (p *FilePrinter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", p.dir, err)
	}
	p.ready = true
	return nil
}

func (p *FilePrinter) Send(ctx context.Context, job RasterJob) error {
	if !p.ready {
		return fmt.Errorf("printer not connected")
	}
	base := filepath.Join(p.dir, fmt.Sprintf("label_%s_%03d", time.Now().Format("20060102-150405"), fileSeq.Add(1)))

	if job.Image != nil {
		f, err := os.Create(base + ".png")
		if err != nil {
			return err
		}
		if err := png.Encode(f, job.Image); err != nil {
			f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if err := os.WriteFile(base+".bin", job.Data, 0644); err != nil {
		return err
	}

	logger.Info("Dry-run: label written instead of printed",
		zap.String("path", base),
		zap.Int("raster_bytes", len(job.Data)))
	return nil
}

func (p *FilePrinter) Disconnect() error {
	p.ready = false
	return nil
}

func (p *FilePrinter) Type() PrinterType { return PrinterTypeFile }

func (p *FilePrinter) IsConnected() bool { return p.ready }
