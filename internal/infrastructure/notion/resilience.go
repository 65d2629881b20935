package notion

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "notion status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("notion %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("notion %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyNotionError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

// wrapFetchError sorts a fetch failure into its domain kind. Caller
// cancellation passes through untouched so the resolver can abort; transient
// failures become ErrUnavailable and everything else ErrContentFetch.
func wrapFetchError(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	if domain.IsKind(err, domain.ErrUnavailable) || domain.IsKind(err, domain.ErrContentFetch) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || resilience.IsCircuitOpen(err) || classifyNotionError(err).Retryable {
		return domain.WrapError(domain.ErrUnavailable, operation, err)
	}
	return domain.WrapError(domain.ErrContentFetch, operation, err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
