package isp

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotEngaged is returned by every operation issued outside an
	// engaged programming session.
	ErrNotEngaged = errors.New("programming mode not engaged")

	// ErrSessionActive is returned by Begin while a session is engaged.
	ErrSessionActive = errors.New("programming session already active")

	// ErrHandshakeFailed matches every *HandshakeError.
	ErrHandshakeFailed = errors.New("target did not enter programming mode")
)

// HandshakeError reports that no Programming Enable attempt was echoed.
type HandshakeError struct {
	Attempts int
	LastEcho byte
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("target did not enter programming mode after %d attempts (last echo 0x%02X, expected 0x%02X)",
		e.Attempts, e.LastEcho, opEnableEcho)
}

func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshakeFailed
}

// TimeoutError reports that the caller's context ended an operation which
// was waiting on the target.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// VerifyError indicates that flash read back differs from what was written.
type VerifyError struct {
	Address  uint32
	Expected byte
	Actual   byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed at 0x%06X: expected 0x%02X, got 0x%02X",
		e.Address, e.Expected, e.Actual)
}

// UnknownDeviceError indicates a signature missing from the device table.
type UnknownDeviceError struct {
	Signature [3]byte
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device signature %02X %02X %02X",
		e.Signature[0], e.Signature[1], e.Signature[2])
}

// Result classifies the outcome of Begin and of the waiting operations.
type Result int

const (
	ResultEngaged Result = iota
	ResultHandshakeFailure
	ResultTimeout
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultEngaged:
		return "engaged"
	case ResultHandshakeFailure:
		return "handshake failure"
	case ResultTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// Outcome maps an error returned by this package to a Result. A nil error
// is ResultEngaged.
func Outcome(err error) Result {
	var timeout *TimeoutError
	switch {
	case err == nil:
		return ResultEngaged
	case errors.Is(err, ErrHandshakeFailed):
		return ResultHandshakeFailure
	case errors.As(err, &timeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ResultTimeout
	default:
		return ResultError
	}
}
