package runner

import (
	"fmt"

	"github.com/notargets/vecadd/device"
)

// executeCopyActions is the copy engine used by CopyInputs and ReadResults.
// Every copy is blocking and goes through the device's in-order queue.
func (kr *Runner) executeCopyActions(actions []ParameterUsage) error {
	for _, param := range actions {
		// Skip if no actions needed
		if param.Actions == NoAction {
			continue
		}

		mem := kr.GetMemory(param.Spec.Name)
		if mem == nil {
			return device.NewError(device.KindBufferTransfer, "copy "+param.Spec.Name,
				fmt.Errorf("no device memory allocated for %s", param.Spec.Name))
		}

		// Perform host→device copy if requested
		if param.HasAction(CopyTo) {
			if err := mem.Write(param.Spec.HostBinding); err != nil {
				return fmt.Errorf("failed to copy %s to device: %w", param.Spec.Name, err)
			}
		}

		// Perform device→host copy if requested
		if param.HasAction(CopyBack) {
			if err := mem.Read(param.Spec.HostBinding); err != nil {
				return fmt.Errorf("failed to copy %s from device: %w", param.Spec.Name, err)
			}
		}
	}
	return nil
}

// CopyInputs writes every CopyTo array from host to device. It runs once,
// after allocation and before the kernel is bound.
func (kr *Runner) CopyInputs() error {
	if err := kr.require("CopyInputs", BuffersReady); err != nil {
		return err
	}
	if kr.inputsCopied {
		return fmt.Errorf("%w: inputs already copied to device", ErrOutOfOrder)
	}

	if err := kr.executeCopyActions(kr.usagesFor(CopyTo)); err != nil {
		return err
	}
	kr.inputsCopied = true
	return nil
}

// ReadResults reads every CopyBack array from device to host in one blocking
// call per buffer
func (kr *Runner) ReadResults() error {
	if err := kr.require("ReadResults", Launched); err != nil {
		return err
	}

	if err := kr.executeCopyActions(kr.usagesFor(CopyBack)); err != nil {
		return err
	}
	kr.state = ResultsRead
	return nil
}
