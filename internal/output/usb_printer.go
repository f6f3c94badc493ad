package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

// statusTimeout bounds how long Send waits for "printing completed".
const statusTimeout = 10 * time.Second

// USBPrinter talks to a QL printer over libusb bulk endpoints.
type USBPrinter struct {
	config PrinterConfig

	usb   *gousb.Context
	dev   *gousb.Device
	intf  *gousb.Interface
	done  func()
	out   *gousb.OutEndpoint
	in    *gousb.InEndpoint
	ready bool
}

func NewUSBPrinter(config PrinterConfig) (*USBPrinter, error) {
	if config.VendorID == 0 || config.ProductID == 0 {
		return nil, fmt.Errorf("usb vendor and product id are required")
	}
	return &USBPrinter{config: config}, nil
}

// Connect はデバイスを開いてバルクエンドポイントを確保する
func (p *USBPrinter) Connect(ctx context.Context) error {
	p.usb = gousb.NewContext()

	dev, err := p.usb.OpenDeviceWithVIDPID(p.config.VendorID, p.config.ProductID)
	if err != nil {
		p.Disconnect()
		return fmt.Errorf("open usb device %s:%s: %w", p.config.VendorID, p.config.ProductID, err)
	}
	if dev == nil {
		p.Disconnect()
		return fmt.Errorf("%w: usb %s:%s", ErrPrinterNotFound, p.config.VendorID, p.config.ProductID)
	}
	p.dev = dev

	if p.config.Serial != "" {
		serial, err := dev.SerialNumber()
		if err != nil || serial != p.config.Serial {
			p.Disconnect()
			return fmt.Errorf("%w: usb %s:%s serial %s", ErrPrinterNotFound, p.config.VendorID, p.config.ProductID, p.config.Serial)
		}
	}

	if err := dev.SetAutoDetach(true); err != nil {
		logger.Warn("Failed to enable kernel driver auto-detach", zap.Error(err))
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		p.Disconnect()
		return fmt.Errorf("claim usb interface: %w", err)
	}
	p.intf, p.done = intf, done

	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if p.out == nil {
				p.out, err = intf.OutEndpoint(ep.Number)
			}
		case gousb.EndpointDirectionIn:
			if p.in == nil {
				p.in, err = intf.InEndpoint(ep.Number)
			}
		}
		if err != nil {
			p.Disconnect()
			return fmt.Errorf("open usb endpoint %d: %w", ep.Number, err)
		}
	}
	if p.out == nil {
		p.Disconnect()
		return fmt.Errorf("usb device %s:%s has no bulk out endpoint", p.config.VendorID, p.config.ProductID)
	}

	p.ready = true
	logger.Info("USB printer connected",
		zap.String("vid", p.config.VendorID.String()),
		zap.String("pid", p.config.ProductID.String()))
	return nil
}

// Send writes the raster stream and waits for the printer to report completion.
func (p *USBPrinter) Send(ctx context.Context, job RasterJob) error {
	if !p.ready {
		return fmt.Errorf("printer not connected")
	}
	if _, err := p.out.WriteContext(ctx, job.Data); err != nil {
		return fmt.Errorf("usb write: %w", err)
	}
	if p.in == nil {
		return nil
	}
	return p.waitCompleted(ctx)
}

func (p *USBPrinter) waitCompleted(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	buf := make([]byte, p.in.Desc.MaxPacketSize)
	for {
		n, err := p.in.ReadContext(ctx, buf)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("no completion status within %s", statusTimeout)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("usb read status: %w", err)
		}
		if n < statusPacketSize {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		st, err := ParseStatus(buf[:n])
		if err != nil {
			logger.Debug("Ignoring malformed status packet", zap.Error(err))
			continue
		}
		if err := st.Err(); err != nil {
			return err
		}
		logger.Debug("Printer status", zap.Uint8("type", uint8(st.Type)), zap.Uint8("phase", st.Phase))
		if st.Type == StatusCompleted {
			return nil
		}
	}
}

func (p *USBPrinter) Disconnect() error {
	if p.done != nil {
		p.done()
		p.done = nil
	}
	p.intf, p.in, p.out = nil, nil, nil
	var err error
	if p.dev != nil {
		err = p.dev.Close()
		p.dev = nil
	}
	if p.usb != nil {
		if cerr := p.usb.Close(); err == nil {
			err = cerr
		}
		p.usb = nil
	}
	p.ready = false
	return err
}

func (p *USBPrinter) Type() PrinterType { return PrinterTypeUSB }

func (p *USBPrinter) IsConnected() bool { return p.ready }
