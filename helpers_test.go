package racer

import (
	"testing"
	"time"

	"github.com/zeebo/pcg"
)

// jitter sleeps for a short random time to shake out interleavings.
func jitter() {
	time.Sleep(time.Duration(pcg.Uint32n(200)) * time.Microsecond)
}

// waitFor polls cond until it holds, failing the test after a few seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

// queued returns how many waiters are blocked on s.
func queued(s *Semaphore) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}
