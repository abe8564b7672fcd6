package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

func TestAwaitPathReturnsOperationResult(t *testing.T) {
	path, err := awaitPathWithTimeout(context.Background(), time.Second, "op", func(context.Context) (string, error) {
		return "stored/file.pdf", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "stored/file.pdf" {
		t.Fatalf("path = %q", path)
	}
}

func TestAwaitPathPropagatesOperationError(t *testing.T) {
	opErr := errors.New("disk full")
	_, err := awaitPathWithTimeout(context.Background(), time.Second, "op", func(context.Context) (string, error) {
		return "", opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("expected operation error, got %v", err)
	}
}

func TestAwaitPathTimesOut(t *testing.T) {
	_, err := awaitPathWithTimeout(context.Background(), 5*time.Millisecond, "upload source document", func(context.Context) (string, error) {
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	})
	if !domain.IsKind(err, domain.ErrTimedOut) {
		t.Fatalf("expected timed-out kind, got %v", err)
	}
}

func TestAwaitPathDoesNotCancelTheLoser(t *testing.T) {
	finished := make(chan string, 1)
	_, err := awaitPathWithTimeout(context.Background(), 5*time.Millisecond, "op", func(ctx context.Context) (string, error) {
		time.Sleep(30 * time.Millisecond)
		if ctx.Err() != nil {
			finished <- "cancelled"
			return "", ctx.Err()
		}
		finished <- "landed"
		return "late", nil
	})
	if !domain.IsKind(err, domain.ErrTimedOut) {
		t.Fatalf("expected timed-out kind, got %v", err)
	}

	// The orphaned operation keeps running and its effect still lands.
	select {
	case outcome := <-finished:
		if outcome != "landed" {
			t.Fatalf("loser was cancelled")
		}
	case <-time.After(time.Second):
		t.Fatalf("orphaned operation never completed")
	}
}
