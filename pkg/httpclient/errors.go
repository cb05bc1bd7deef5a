package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
)

// ErrServerStatus marks a 5xx response turned into an error by the circuit breaker.
var ErrServerStatus = errors.New("server error")

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError. The caller should only invoke it when the
// status is not 2xx.
func ParseResponseError(resp *http.Response, resource string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", resource, resp.StatusCode, err)
	}

	cause := fmt.Errorf("%s returned status %d: %s", resource, resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    apperrors.CodeNotFound,
			Message: fmt.Sprintf("%s not found", resource),
			Status:  http.StatusNotFound,
			Err:     errors.Join(apperrors.ErrNotFound, cause),
		}
	case resp.StatusCode >= 500:
		return apperrors.Unavailable(fmt.Sprintf("%s unavailable", resource), cause)
	default:
		return &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: fmt.Sprintf("%s returned status %d", resource, resp.StatusCode),
			Status:  http.StatusBadGateway,
			Err:     cause,
		}
	}
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
