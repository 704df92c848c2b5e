package runner

import (
	"errors"
	"fmt"
)

// State is the position of a session in the pipeline. Transitions only move
// forward; Free is legal from every state.
//
// Uninitialized and DeviceSelected are passed inside device.Select, which
// returns a device whose context and queue are already built. A Runner
// therefore starts in ContextReady.
type State int

const (
	Uninitialized State = iota
	DeviceSelected
	ContextReady
	ProgramBuilt
	BuffersReady
	KernelBound
	Launched
	ResultsRead
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case DeviceSelected:
		return "device-selected"
	case ContextReady:
		return "context-ready"
	case ProgramBuilt:
		return "program-built"
	case BuffersReady:
		return "buffers-ready"
	case KernelBound:
		return "kernel-bound"
	case Launched:
		return "launched"
	case ResultsRead:
		return "results-read"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrOutOfOrder is returned when a stage is called from the wrong state
var ErrOutOfOrder = errors.New("pipeline stage called out of order")

// require checks that the runner is in one of the allowed states
func (kr *Runner) require(stage string, allowed ...State) error {
	for _, s := range allowed {
		if kr.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s requires state %v, runner is %s", ErrOutOfOrder, stage, allowed, kr.state)
}
