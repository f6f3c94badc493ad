package status

import (
	"sync"
	"time"
)

// PrinterStatusChangeCallback is called when printer connection status changes
type PrinterStatusChangeCallback func(connected bool)

// PrinterSnapshot is the last known printer state.
type PrinterSnapshot struct {
	Connected bool
	LastError string
	UpdatedAt time.Time
}

var (
	mu               sync.RWMutex
	printerConnected bool
	lastError        string
	updatedAt        time.Time
	printerCallbacks []PrinterStatusChangeCallback
)

// SetPrinterConnected sets the printer connection status
func SetPrinterConnected(connected bool) {
	mu.Lock()
	previous := printerConnected
	printerConnected = connected
	updatedAt = time.Now()
	callbacks := make([]PrinterStatusChangeCallback, len(printerCallbacks))
	copy(callbacks, printerCallbacks)
	mu.Unlock()

	// 状態が変更された場合のみ通知
	if previous == connected {
		return
	}
	for _, cb := range callbacks {
		if cb != nil {
			cb(connected)
		}
	}
}

// SetLastError records the most recent send failure; nil clears it.
func SetLastError(err error) {
	mu.Lock()
	defer mu.Unlock()
	if err == nil {
		lastError = ""
	} else {
		lastError = err.Error()
	}
	updatedAt = time.Now()
}

// IsPrinterConnected returns the printer connection status
func IsPrinterConnected() bool {
	mu.RLock()
	defer mu.RUnlock()
	return printerConnected
}

func Snapshot() PrinterSnapshot {
	mu.RLock()
	defer mu.RUnlock()
	return PrinterSnapshot{Connected: printerConnected, LastError: lastError, UpdatedAt: updatedAt}
}

// RegisterPrinterStatusChangeCallback registers a callback for printer status changes
func RegisterPrinterStatusChangeCallback(callback PrinterStatusChangeCallback) {
	mu.Lock()
	defer mu.Unlock()
	printerCallbacks = append(printerCallbacks, callback)
}

// Reset clears state and callbacks at the end of a session.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	printerConnected = false
	lastError = ""
	updatedAt = time.Time{}
	printerCallbacks = nil
}
