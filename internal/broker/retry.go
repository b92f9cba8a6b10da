package broker

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"syscall"

	"foodcourt/pkg/errors"
)

// transientCodes mirrors the infrastructure failure modes that warrant a
// redelivery: connection refused, timeouts, host lookup failures.
var transientCodes = []string{
	"ECONNREFUSED",
	"ETIMEDOUT",
	"ENOTFOUND",
	"EAI_AGAIN",
	"connection refused",
	"i/o timeout",
	"no such host",
}

// ShouldRetry classifies a handler failure as transient (nack with requeue)
// or permanent (nack and drop). This is the single retry policy for every
// consumer; handlers never run their own backoff.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var retryableErr errors.RetryableError
	if stderrors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return true
	}

	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, code := range transientCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
