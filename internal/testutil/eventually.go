package testutil

import (
	"testing"
	"time"
)

// Eventually polls cond until it holds or the timeout elapses. The module
// pipeline is asynchronous, so tests assert on settled state this way.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %v: %s", timeout, msg)
}
