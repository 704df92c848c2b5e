package runner

import (
	"github.com/notargets/vecadd/runner/builder"
)

// ActionFlags represents the memory operations to perform for a parameter
type ActionFlags int

const (
	// No action
	NoAction ActionFlags = 0
	// Copy from host to device before kernel execution
	CopyTo ActionFlags = 1 << iota
	// Copy from device to host after kernel execution
	CopyBack
)

// ParameterUsage pairs a parameter with the copies to perform for it
type ParameterUsage struct {
	Spec    builder.ParamSpec
	Actions ActionFlags
}

// HasAction checks if a specific action is set
func (pu *ParameterUsage) HasAction(action ActionFlags) bool {
	return pu.Actions&action != 0
}

// usagesFor collects the parameters that need the given action
func (kr *Runner) usagesFor(action ActionFlags) []ParameterUsage {
	var usages []ParameterUsage
	for _, p := range kr.params {
		switch {
		case action == CopyTo && p.NeedsCopyTo():
			usages = append(usages, ParameterUsage{Spec: p, Actions: CopyTo})
		case action == CopyBack && p.NeedsCopyBack():
			usages = append(usages, ParameterUsage{Spec: p, Actions: CopyBack})
		}
	}
	return usages
}
