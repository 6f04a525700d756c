package channel

import (
	"testing"
	"time"
)

func TestPushTryPop(t *testing.T) {
	c := New(false)
	if _, ok := c.TryPop(); ok {
		t.Fatal("expected empty channel")
	}

	c.Push(1)
	c.Push(2)

	v, ok := c.TryPop()
	if !ok || v.(int) != 1 {
		t.Fatalf("got %v, %v; want 1, true", v, ok)
	}
	v, ok = c.TryPop()
	if !ok || v.(int) != 2 {
		t.Fatalf("got %v, %v; want 2, true", v, ok)
	}
	if _, ok := c.TryPop(); ok {
		t.Fatal("expected empty channel after draining")
	}
}

func TestPopWaitBlocksUntilPush(t *testing.T) {
	c := New(false)
	done := make(chan any, 1)

	go func() {
		done <- c.PopWait()
	}()

	select {
	case <-done:
		t.Fatal("PopWait returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	c.Push("hello")

	select {
	case v := <-done:
		if v.(string) != "hello" {
			t.Fatalf("got %v, want hello", v)
		}
	case <-time.After(time.Second):
		t.Fatal("PopWait did not unblock after push")
	}
}

func TestRemoveIf(t *testing.T) {
	c := New(false)
	for i := 0; i < 5; i++ {
		c.Push(i)
	}

	c.RemoveIf(func(item any) bool {
		return item.(int)%2 == 0
	})

	if c.Len() != 2 {
		t.Fatalf("expected 2 items remaining, got %d", c.Len())
	}
	v, _ := c.TryPop()
	if v.(int) != 1 {
		t.Fatalf("got %v, want 1", v)
	}
	v, _ = c.TryPop()
	if v.(int) != 3 {
		t.Fatalf("got %v, want 3", v)
	}
}

func TestSignalableFd(t *testing.T) {
	c := New(true)
	defer c.Close()

	if c.Fd() < 0 {
		t.Fatal("expected a valid fd for a signalable channel")
	}

	c.Push(42)
	c.ClearFd()

	v, ok := c.TryPop()
	if !ok || v.(int) != 42 {
		t.Fatalf("got %v, %v; want 42, true", v, ok)
	}
}
