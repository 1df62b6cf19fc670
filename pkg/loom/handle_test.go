package loom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loom-ui/loom/pkg/lanes"
)

func TestCompletionResolvesOnce(t *testing.T) {
	c := newCompletion()
	c.resolve(false)
	c.resolve(true) // second resolution must not change the outcome

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after resolve")
	}
	if c.Canceled() {
		t.Error("Canceled = true, first resolution was normal")
	}
}

func TestCompletionWaitCanceled(t *testing.T) {
	c := newCompletion()
	c.resolve(true)
	if err := c.Wait(context.Background()); !errors.Is(err, ErrCanceled) {
		t.Fatalf("Wait = %v, want ErrCanceled", err)
	}
}

func TestCompletionWaitContext(t *testing.T) {
	c := newCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want DeadlineExceeded", err)
	}
}

func TestCompletionCanceledBeforeResolve(t *testing.T) {
	c := newCompletion()
	if c.Canceled() {
		t.Error("Canceled = true before resolution")
	}
}

func TestNoopHandle(t *testing.T) {
	h := NoopHandle()
	if h.Lanes != lanes.NoLanes {
		t.Errorf("Lanes = %v, want NoLanes", h.Lanes)
	}
	if err := h.Scheduled().Wait(context.Background()); !errors.Is(err, ErrCanceled) {
		t.Errorf("Scheduled().Wait = %v, want ErrCanceled", err)
	}
	if err := h.Finished().Wait(context.Background()); !errors.Is(err, ErrCanceled) {
		t.Errorf("Finished().Wait = %v, want ErrCanceled", err)
	}
}
