package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

type pathResult struct {
	path string
	err  error
}

// awaitPathWithTimeout races op against a timer and adopts whichever
// settles first. The loser is not cancelled: op keeps the caller's
// context and its effects may still land after a timeout was already
// reported. The result channel is buffered so the orphaned goroutine
// never blocks.
func awaitPathWithTimeout(ctx context.Context, bound time.Duration, operation string, op func(context.Context) (string, error)) (string, error) {
	done := make(chan pathResult, 1)
	go func() {
		path, err := op(ctx)
		done <- pathResult{path: path, err: err}
	}()

	timer := time.NewTimer(bound)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.path, res.err
	case <-timer.C:
		return "", domain.WrapError(domain.ErrTimedOut, operation, fmt.Errorf("no result after %s", bound))
	}
}
