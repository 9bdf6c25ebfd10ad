package pingline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Echoer sends a single echo request to the target and waits for the matching reply
type Echoer interface {
	Echo(ctx context.Context, target net.IP) (time.Duration, error)
}

type EchoErrorKind string

const (
	EchoUnreachable EchoErrorKind = "unreachable"
	EchoTimeout     EchoErrorKind = "timeout"
	EchoPermission  EchoErrorKind = "permission denied"
	EchoMalformed   EchoErrorKind = "malformed response"
	EchoOther       EchoErrorKind = "echo failed"
)

// EchoError is the failure reason of a single echo request
type EchoError struct {
	Kind EchoErrorKind
	Err  error
}

func (this *EchoError) Error() string {

	if this.Err == nil {
		return string(this.Kind)
	}

	return fmt.Sprintf("%s: %s", this.Kind, this.Err.Error())
}

func (this *EchoError) Unwrap() error {
	return this.Err
}

// ClassifyEchoError wraps an echo failure into an EchoError with the best matching kind.
// Errors that already are EchoErrors are returned as is.
func ClassifyEchoError(err error) error {

	if err == nil {
		return nil
	}

	if echoErr := (*EchoError)(nil); errors.As(err, &echoErr) {
		return echoErr
	}

	var netErr net.Error

	switch {
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return &EchoError{Kind: EchoPermission, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return &EchoError{Kind: EchoTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &EchoError{Kind: EchoTimeout, Err: err}
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.EHOSTDOWN):
		return &EchoError{Kind: EchoUnreachable, Err: err}
	default:
		return &EchoError{Kind: EchoOther, Err: err}
	}
}
