package output

import (
	"context"
	"errors"
	"image"

	"github.com/google/gousb"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
)

// ErrPrinterNotFound is returned when the configured printer is not attached.
var ErrPrinterNotFound = errors.New("printer not found")

// PrinterType はプリンターの種類を表す
type PrinterType string

const (
	PrinterTypeUSB       PrinterType = "usb"       // libusb, VID:PID
	PrinterTypeDevice    PrinterType = "device"    // /dev/usb/lpN
	PrinterTypeCUPS      PrinterType = "cups"      // lpr -o raw
	PrinterTypeBluetooth PrinterType = "bluetooth" // BLE thermal printer
	PrinterTypeFile      PrinterType = "file"      // dry run into a directory
)

// RasterJob is one label ready for a backend. Data holds the QL raster
// stream; backends that print bitmaps directly use Image instead.
type RasterJob struct {
	Image image.Image
	Tape  label.TapeWidth
	Data  []byte
}

// PrinterBackend はプリンター実装の共通インターフェース
type PrinterBackend interface {
	// Connect はプリンターに接続する
	Connect(ctx context.Context) error

	// Send はラスタージョブを送信し、印刷完了まで待つ
	Send(ctx context.Context, job RasterJob) error

	// Disconnect はプリンター接続を切断する
	Disconnect() error

	// Type はプリンター種類を返す
	Type() PrinterType

	// IsConnected は接続状態を返す
	IsConnected() bool
}

// PrinterConfig はプリンター設定
type PrinterConfig struct {
	Type       PrinterType
	Identifier string
	Model      string
	DryRun     bool
	Raster     RasterOptions

	// USB固有
	VendorID  gousb.ID
	ProductID gousb.ID
	Serial    string

	// デバイスファイル
	DevicePath string

	// CUPS
	QueueName string

	// Bluetooth固有
	BluetoothAddress string
	BestQuality      bool
	Dither           bool
	AutoRotate       bool
	BlackPoint       float32
	RotatePrint      bool

	// dry run 出力先
	OutputDir string
}
