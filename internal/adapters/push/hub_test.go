package push

import (
	"context"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRoutesByBoard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub()
	go h.Run(ctx)

	plan := NewClient("c1", "Plan|", 4)
	current := NewClient("c2", "Current|", 4)
	h.Register(plan)
	h.Register(current)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.Publish("Plan|", []byte("plan-board"))

	select {
	case got := <-plan.Send:
		if string(got) != "plan-board" {
			t.Fatalf("payload = %q, want plan-board", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("plan client got nothing")
	}

	select {
	case got := <-current.Send:
		t.Fatalf("current client got %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	h.Unregister(plan)
	waitFor(t, func() bool { return h.ClientCount() == 1 })
	if _, ok := <-plan.Send; ok {
		t.Fatal("unregistered client channel still open")
	}
}

func TestHubPublishDoesNotBlock(t *testing.T) {
	h := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Publish("Plan|", []byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestHubCallsReturnAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		// More calls than the register and unregister buffers hold.
		for i := 0; i < 64; i++ {
			c := NewClient("late", "Plan|", 1)
			h.Register(c)
			h.Unregister(c)
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after hub stopped")
	}

	c := NewClient("after", "Plan|", 1)
	h.Register(c)
	if _, ok := <-c.Send; ok {
		t.Fatal("send channel open after register on stopped hub")
	}
}
