package output

import (
	"errors"
	"fmt"
	"strings"
)

const statusPacketSize = 32

// StatusType is byte 18 of a QL status packet.
type StatusType byte

const (
	StatusReply        StatusType = 0x00
	StatusCompleted    StatusType = 0x01
	StatusError        StatusType = 0x02
	StatusNotification StatusType = 0x05
	StatusPhaseChange  StatusType = 0x06
)

var ErrShortStatus = errors.New("short status packet")

var errorInfo1 = []string{
	"no media when printing",
	"end of media",
	"tape cutter jam",
	"",
	"main unit in use",
	"printer turned off",
	"high-voltage adapter",
	"fan does not work",
}

var errorInfo2 = []string{
	"replace media",
	"expansion buffer full",
	"communication error",
	"communication buffer full",
	"cover open",
	"cancel key",
	"media cannot be fed",
	"system error",
}

// PrinterStatus is a decoded 32-byte status packet.
type PrinterStatus struct {
	Type         StatusType
	Phase        byte
	MediaWidthMM int
	MediaType    byte
	Errors       []string
}

func (s PrinterStatus) HasError() bool {
	return len(s.Errors) > 0 || s.Type == StatusError
}

func (s PrinterStatus) Err() error {
	if !s.HasError() {
		return nil
	}
	if len(s.Errors) == 0 {
		return errors.New("printer reported an error")
	}
	return fmt.Errorf("printer reported: %s", strings.Join(s.Errors, ", "))
}

// ParseStatus decodes a status packet read from the printer.
func ParseStatus(b []byte) (PrinterStatus, error) {
	if len(b) < statusPacketSize {
		return PrinterStatus{}, fmt.Errorf("%w: %d bytes", ErrShortStatus, len(b))
	}
	if b[0] != 0x80 || b[1] != 0x20 || b[2] != 'B' {
		return PrinterStatus{}, fmt.Errorf("unexpected status header % x", b[:3])
	}
	s := PrinterStatus{
		Type:         StatusType(b[18]),
		Phase:        b[19],
		MediaWidthMM: int(b[10]),
		MediaType:    b[11],
	}
	for bit := 0; bit < 8; bit++ {
		if b[8]&(1<<bit) != 0 && errorInfo1[bit] != "" {
			s.Errors = append(s.Errors, errorInfo1[bit])
		}
		if b[9]&(1<<bit) != 0 {
			s.Errors = append(s.Errors, errorInfo2[bit])
		}
	}
	return s, nil
}
