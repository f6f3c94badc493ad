package output

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"strings"
	"time"

	"git.massivebox.net/massivebox/go-catprinter"
	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

// BluetoothPrinter prints the composed bitmap on a BLE thermal printer.
// The QL raster stream is not used; the printer gets the image directly,
// rotated so the tape height runs across its head.
type BluetoothPrinter struct {
	client    *catprinter.Client
	opts      *catprinter.PrinterOptions
	address   string
	connected bool
	config    PrinterConfig
}

func NewBluetoothPrinter(config PrinterConfig) (*BluetoothPrinter, error) {
	if config.BluetoothAddress == "" {
		return nil, fmt.Errorf("bluetooth address is required")
	}
	return &BluetoothPrinter{address: config.BluetoothAddress, config: config}, nil
}

// Connect はプリンターに接続する
func (p *BluetoothPrinter) Connect(ctx context.Context) error {
	if err := ensureBluetoothSafeToUse(); err != nil {
		return err
	}
	if p.client != nil {
		p.Disconnect()
	}

	client, err := newCatPrinterClientWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to create catprinter client: %w", err)
	}
	p.client = client

	p.opts = catprinter.NewOptions().
		SetBestQuality(p.config.BestQuality).
		SetDither(p.config.Dither).
		SetAutoRotate(p.config.AutoRotate).
		SetBlackPoint(p.config.BlackPoint)

	logger.Info("Connecting to Bluetooth printer", zap.String("address", p.address))
	if err := p.client.Connect(p.address); err != nil {
		p.Disconnect()
		return fmt.Errorf("%w: bluetooth %s: %v", ErrPrinterNotFound, p.address, err)
	}

	// BLE接続直後のパラメータネゴシエーション完了を待つ
	if err := sleepContext(ctx, time.Second); err != nil {
		p.Disconnect()
		return err
	}

	p.connected = true
	return nil
}

func (p *BluetoothPrinter) Send(ctx context.Context, job RasterJob) error {
	if !p.connected || p.client == nil {
		return fmt.Errorf("printer not connected")
	}
	if job.Image == nil {
		return fmt.Errorf("bluetooth printer needs the label image")
	}

	// ラベルの高さ方向をヘッド幅に合わせる
	var img image.Image = imaging.Rotate270(job.Image)
	if p.config.RotatePrint {
		img = imaging.Rotate180(img)
	}

	if err := p.client.Print(img, p.opts, false); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}

	// Cat printers are slow (~10mm/s): base 2s + 1s per 60 rows.
	height := img.Bounds().Dy()
	wait := max(3, 2+height/60)
	logger.Info("Print finished, waiting for stabilization",
		zap.Int("height_px", height),
		zap.Int("wait_seconds", wait))
	return sleepContext(ctx, time.Duration(wait)*time.Second)
}

func (p *BluetoothPrinter) Disconnect() error {
	if p.client != nil {
		if p.connected {
			p.client.Disconnect()
			p.connected = false
		}
		p.client.Stop()
		p.client = nil
	}
	return nil
}

func (p *BluetoothPrinter) Type() PrinterType { return PrinterTypeBluetooth }

func (p *BluetoothPrinter) IsConnected() bool { return p.connected }

// go-ble/cbgo sometimes returns ManagerStateUnknown (have=0) briefly after startup.
func shouldRetryDarwinDeviceInit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "central manager has invalid state") && strings.Contains(msg, "have=0")
}

func newCatPrinterClientWithRetry(ctx context.Context) (*catprinter.Client, error) {
	var lastErr error
	for attempt := 0; attempt < 6; attempt++ {
		c, err := catprinter.NewClient()
		if err == nil {
			return c, nil
		}
		lastErr = err
		if !shouldRetryDarwinDeviceInit(err) {
			break
		}
		if err := sleepContext(ctx, 500*time.Millisecond); err != nil {
			return nil, err
		}
	}
	if runtime.GOOS == "darwin" && lastErr != nil && strings.Contains(lastErr.Error(), "central manager has invalid state") {
		return nil, fmt.Errorf("%w (macOS: enable Bluetooth and allow this terminal under Privacy & Security > Bluetooth)", lastErr)
	}
	return nil, lastErr
}

// CoreBluetooth aborts non-bundled processes that lack usage descriptions,
// unless the process runs inside an .app bundle.
func ensureBluetoothSafeToUse() error {
	if runtime.GOOS != "darwin" {
		return nil
	}
	exe, err := os.Executable()
	if err == nil && strings.Contains(exe, ".app/Contents/MacOS/") {
		return nil
	}
	if os.Getenv("LABELPRINT_ALLOW_BLE_CLI") != "" {
		return nil
	}
	return fmt.Errorf("bluetooth printing on macOS requires an .app bundle (set LABELPRINT_ALLOW_BLE_CLI=1 to try anyway)")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
