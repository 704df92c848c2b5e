package device

import (
	"errors"
	"fmt"
)

// Kind classifies a failure in the vector add pipeline
type Kind int

const (
	KindPlatformNotFound Kind = iota + 1
	KindDeviceNotFound
	KindContextCreation
	KindQueueCreation
	KindSourceNotFound
	KindProgramBuild
	KindKernelCreation
	KindBufferAllocation
	KindArgumentBinding
	KindBufferTransfer
	KindLaunch
	KindVerification
	KindInvalidConfig
)

// String returns the kind as a short lowercase label
func (k Kind) String() string {
	switch k {
	case KindPlatformNotFound:
		return "platform-not-found"
	case KindDeviceNotFound:
		return "device-not-found"
	case KindContextCreation:
		return "context-creation-failed"
	case KindQueueCreation:
		return "queue-creation-failed"
	case KindSourceNotFound:
		return "source-file-not-found"
	case KindProgramBuild:
		return "program-build-failed"
	case KindKernelCreation:
		return "kernel-creation-failed"
	case KindBufferAllocation:
		return "buffer-allocation-failed"
	case KindArgumentBinding:
		return "argument-binding-failed"
	case KindBufferTransfer:
		return "buffer-transfer-failed"
	case KindLaunch:
		return "kernel-launch-failed"
	case KindVerification:
		return "verification-failed"
	case KindInvalidConfig:
		return "invalid-config"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
// Log carries the compiler output for KindProgramBuild.
type Error struct {
	Kind Kind
	Op   string
	Log  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error for the named operation
func NewError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewBuildError creates a program build error carrying the build log
func NewBuildError(op, log string, err error) error {
	return &Error{Kind: KindProgramBuild, Op: op, Log: log, Err: err}
}

// KindOf returns the kind of the first classified error in the chain, or 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// BuildLog returns the compiler log attached to err, if any
func BuildLog(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Log
	}
	return ""
}
