package output

import (
	"errors"
	"strings"
	"testing"
)

func statusPacket(typ StatusType, err1, err2 byte) []byte {
	b := make([]byte, statusPacketSize)
	b[0], b[1], b[2] = 0x80, 0x20, 'B'
	b[8], b[9] = err1, err2
	b[10] = 62
	b[11] = 0x0A
	b[18] = byte(typ)
	return b
}

func TestParseStatusCompleted(t *testing.T) {
	s, err := ParseStatus(statusPacket(StatusCompleted, 0, 0))
	if err != nil {
		t.Fatalf("ParseStatus error: %v", err)
	}
	if s.Type != StatusCompleted || s.HasError() || s.MediaWidthMM != 62 || s.MediaType != 0x0A {
		t.Fatalf("status got=%+v", s)
	}
	if s.Err() != nil {
		t.Fatalf("Err got=%v want nil", s.Err())
	}
}

func TestParseStatusErrors(t *testing.T) {
	s, err := ParseStatus(statusPacket(StatusError, 0x01, 0x10))
	if err != nil {
		t.Fatal(err)
	}
	if !s.HasError() || len(s.Errors) != 2 {
		t.Fatalf("errors got=%v", s.Errors)
	}
	msg := s.Err().Error()
	if !strings.Contains(msg, "no media") || !strings.Contains(msg, "cover open") {
		t.Fatalf("message got=%q", msg)
	}
}

func TestParseStatusShort(t *testing.T) {
	if _, err := ParseStatus(make([]byte, 8)); !errors.Is(err, ErrShortStatus) {
		t.Fatalf("got=%v want=%v", err, ErrShortStatus)
	}
	bad := statusPacket(StatusReply, 0, 0)
	bad[0] = 0x00
	if _, err := ParseStatus(bad); err == nil {
		t.Fatalf("bad header accepted")
	}
}
