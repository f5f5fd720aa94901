package thread

import (
	"log/slog"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// ID identifies a goroutine. Goroutine ids are never reused within a process.
type ID int64

// Current returns the ID of the calling goroutine.
func Current() ID { return ID(goid.Get()) }

// Slot is an opaque per-(key, thread) identifier.
type Slot uint64

var nextSlot atomic.Uint64

// NewSlot returns a Slot that has never been returned before.
func NewSlot() Slot { return Slot(nextSlot.Add(1)) }

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used to report thread exits and destructor
// failures. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) { logger.Store(l) }

func currentLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
