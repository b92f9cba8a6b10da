package broker

import (
	"context"
	stderrors "errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"foodcourt/pkg/errors"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "connection refused errno",
			err:  syscall.ECONNREFUSED,
			want: true,
		},
		{
			name: "wrapped connection refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: true,
		},
		{
			name: "timeout errno",
			err:  syscall.ETIMEDOUT,
			want: true,
		},
		{
			name: "dns lookup failure",
			err:  &net.DNSError{Err: "no such host", Name: "users-service"},
			want: true,
		},
		{
			name: "context deadline exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "transient code in message",
			err:  stderrors.New("dial tcp 10.0.0.4:5672: ECONNREFUSED"),
			want: true,
		},
		{
			name: "coded timeout error",
			err:  errors.ErrTimeout,
			want: true,
		},
		{
			name: "coded service unavailable",
			err:  errors.ErrServiceUnavailable,
			want: true,
		},
		{
			name: "validation error is permanent",
			err:  errors.ErrValidation.WithDetail("message", "event missing orderId"),
			want: false,
		},
		{
			name: "panic converted to fatal error",
			err:  errors.RecoverPanic("boom"),
			want: false,
		},
		{
			name: "generic business error",
			err:  stderrors.New("order already cancelled"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}
