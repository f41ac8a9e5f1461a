package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrUnreachable means the inference server could not be contacted at all.
	ErrUnreachable = errors.New("inference server unreachable")
	// ErrTimeout means the server did not answer within the configured timeout.
	ErrTimeout = errors.New("inference request timed out")
)

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference server returned HTTP %d: %s", e.StatusCode, e.Body)
}

// classifyTransportError maps net/http client errors onto ErrTimeout / ErrUnreachable.
func classifyTransportError(err error, endpoint string) error {
	switch {
	case isTimeout(err):
		return goerr.Wrap(ErrTimeout, "inference request timed out",
			goerr.V("endpoint", endpoint), goerr.V("cause", err.Error()))
	case isUnreachable(err):
		return goerr.Wrap(ErrUnreachable, "cannot connect to inference server",
			goerr.V("endpoint", endpoint), goerr.V("cause", err.Error()))
	default:
		return goerr.Wrap(err, "inference request failed", goerr.V("endpoint", endpoint))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
