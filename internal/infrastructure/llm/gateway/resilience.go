package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/resume-insight/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "gateway status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("gateway %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("gateway %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// classifyGatewayError never marks invocations retryable: the fallback
// resolver owns the policy of moving to the next provider, and a
// provider must not be re-invoked within one resolution. Failures are
// still recorded so the circuit can open across resolutions.
func classifyGatewayError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: isServerFault(statusErr.StatusCode),
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isServerFault(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
