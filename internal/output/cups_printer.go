package output

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

// CUPSPrinter はCUPSキューへrawでラスターを送る実装
type CUPSPrinter struct {
	queue   string
	tempDir string
}

// SystemPrinter はシステムプリンター情報
type SystemPrinter struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// 外部コマンドはテストで差し替える
var (
	lpstatCommand = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, "lpstat", args...).Output()
	}
	lprCommand = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, "lpr", args...).CombinedOutput()
	}
)

func NewCUPSPrinter(config PrinterConfig) (*CUPSPrinter, error) {
	if config.QueueName == "" {
		return nil, fmt.Errorf("CUPS queue name is required")
	}

	tempDir := filepath.Join(os.TempDir(), "ql-label-printer")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &CUPSPrinter{queue: config.QueueName, tempDir: tempDir}, nil
}

// Connect はキューの存在確認のみ
func (p *CUPSPrinter) Connect(ctx context.Context) error {
	if !isSystemPrinterAvailable(ctx, p.queue) {
		return fmt.Errorf("%w: CUPS queue %s", ErrPrinterNotFound, p.queue)
	}
	logger.Debug("CUPS queue available", zap.String("queue", p.queue))
	return nil
}

func (p *CUPSPrinter) Send(ctx context.Context, job RasterJob) error {
	tempFile := filepath.Join(p.tempDir, fmt.Sprintf("label_%d.bin", time.Now().UnixNano()))
	if err := os.WriteFile(tempFile, job.Data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	defer os.Remove(tempFile)

	out, err := lprCommand(ctx, "-P", p.queue, "-o", "raw", tempFile)
	if err != nil {
		logger.Error("lpr command failed",
			zap.String("queue", p.queue),
			zap.Error(err),
			zap.String("output", string(out)))
		return fmt.Errorf("lpr failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	logger.Info("Print job sent to CUPS",
		zap.String("queue", p.queue),
		zap.Int("bytes", len(job.Data)))
	return nil
}

// Disconnect はCUPSでは不要
func (p *CUPSPrinter) Disconnect() error { return nil }

func (p *CUPSPrinter) Type() PrinterType { return PrinterTypeCUPS }

func (p *CUPSPrinter) IsConnected() bool {
	return isSystemPrinterAvailable(context.Background(), p.queue)
}

func isSystemPrinterAvailable(ctx context.Context, name string) bool {
	_, err := lpstatCommand(ctx, "-p", name)
	return err == nil
}

// GetSystemPrinters はCUPSに登録されているキュー一覧を返す
func GetSystemPrinters(ctx context.Context) ([]SystemPrinter, error) {
	out, err := lpstatCommand(ctx, "-p")
	if err != nil {
		return nil, fmt.Errorf("lpstat failed: %w", err)
	}
	return parseLpstat(string(out)), nil
}

// "printer NAME is idle.  enabled since ..." の行をパース
func parseLpstat(out string) []SystemPrinter {
	var printers []SystemPrinter
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "printer ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		status := "unknown"
		if len(parts) >= 4 {
			status = strings.Join(parts[2:], " ")
		}
		printers = append(printers, SystemPrinter{Name: parts[1], Status: status})
	}
	return printers
}
