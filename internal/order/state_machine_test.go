package order

import (
	"testing"
	"time"
)

func TestCanTransitionAndApply(t *testing.T) {
	if !CanTransition(StatusOpen, StatusClosed) {
		t.Fatalf("expected open -> closed allowed")
	}
	if CanTransition(StatusClosed, StatusOpen) {
		t.Fatalf("expected closed -> open not allowed")
	}
	if CanTransition(StatusClosed, StatusClosed) {
		t.Fatalf("expected closed -> closed not allowed")
	}

	o := &ServiceOrder{Status: StatusOpen}
	now := time.Now()
	if err := ApplyTransition(o, StatusClosed, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if o.Status != StatusClosed {
		t.Fatalf("expected status closed, got %s", o.Status)
	}
	if o.ClosedAt == nil || !o.ClosedAt.Equal(now) {
		t.Fatalf("expected closed_at set to now")
	}

	// 终态不可再流转
	if err := ApplyTransition(o, StatusClosed, now); err == nil {
		t.Fatalf("expected second close to fail")
	}
}
