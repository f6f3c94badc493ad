package status

import (
	"errors"
	"testing"
)

func TestSetPrinterConnectedCallbacks(t *testing.T) {
	Reset()
	defer Reset()

	var got []bool
	RegisterPrinterStatusChangeCallback(func(c bool) { got = append(got, c) })

	SetPrinterConnected(true)
	SetPrinterConnected(true) // no change, no callback
	SetPrinterConnected(false)

	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Fatalf("callbacks got=%v want=[true false]", got)
	}
	if IsPrinterConnected() {
		t.Fatalf("IsPrinterConnected got=true want=false")
	}
}

func TestSetLastError(t *testing.T) {
	Reset()
	defer Reset()

	SetLastError(errors.New("cover open"))
	if s := Snapshot(); s.LastError != "cover open" || s.UpdatedAt.IsZero() {
		t.Fatalf("snapshot got=%+v", s)
	}
	SetLastError(nil)
	if s := Snapshot(); s.LastError != "" {
		t.Fatalf("LastError got=%q want empty", s.LastError)
	}
}
