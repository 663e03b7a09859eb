package buffer

import (
	"sync"
	"testing"
)

func TestCommandBuffer_FIFOOrder(t *testing.T) {
	b := New()
	defer b.Stop()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		i := i
		b.Push(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		})
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("executed %d commands, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("command %d executed out of order (got %d)", i, v)
		}
	}
}

func TestCommandBuffer_StopDrains(t *testing.T) {
	b := New()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 50; i++ {
		b.Push(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 50 {
		t.Errorf("Stop() drained %d commands, want 50", count)
	}
}

func TestCommandBuffer_PushAfterStop(t *testing.T) {
	b := New()
	b.Stop()

	if b.Push(func() { t.Error("command ran after Stop()") }) {
		t.Error("Push() after Stop() = true, want false")
	}
}

func TestCommandBuffer_PushNil(t *testing.T) {
	b := New()
	defer b.Stop()

	if b.Push(nil) {
		t.Error("Push(nil) = true, want false")
	}
}

func TestCommandBuffer_ConsumerSelfPush(t *testing.T) {
	b := New()

	done := make(chan struct{})
	b.Push(func() {
		// Re-enqueue from the consumer itself, as the reconnect loop does.
		b.Push(func() { close(done) })
	})
	<-done
	b.Stop()
}

func TestCommandBuffer_StopIdempotent(t *testing.T) {
	b := New()
	b.Stop()
	b.Stop()
}
