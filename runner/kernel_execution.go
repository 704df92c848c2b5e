package runner

import (
	"fmt"
	"time"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/runner/builder"
)

// buildKernelArguments constructs the argument list in parameter order:
// device buffers for arrays, host values for scalars
func (kr *Runner) buildKernelArguments() ([]interface{}, error) {
	args := make([]interface{}, 0, len(kr.params))
	for _, p := range kr.params {
		if p.Direction == builder.DirectionScalar {
			args = append(args, p.HostBinding)
			continue
		}
		mem, exists := kr.PooledMemory[p.Name]
		if !exists {
			return nil, fmt.Errorf("memory for %s not found", p.Name)
		}
		args = append(args, mem)
	}
	return args, nil
}

// BindArguments binds every parameter as a positional kernel argument
func (kr *Runner) BindArguments() error {
	if err := kr.require("BindArguments", BuffersReady); err != nil {
		return err
	}

	args, err := kr.buildKernelArguments()
	if err != nil {
		return device.NewError(device.KindArgumentBinding, "bind "+kr.KernelName, err)
	}
	for i, arg := range args {
		if err := kr.Kernel.SetArg(i, arg); err != nil {
			return fmt.Errorf("failed to bind %s: %w", kr.params[i].Name, err)
		}
	}

	kr.state = KernelBound
	return nil
}

// Launch enqueues the kernel over dims and blocks until the device has
// finished it. The returned duration covers enqueue and completion.
// Relaunching a launched kernel is allowed and recomputes the output.
func (kr *Runner) Launch(dims builder.LaunchDims) (time.Duration, error) {
	if err := kr.require("Launch", KernelBound, Launched); err != nil {
		return 0, err
	}
	if dims.N <= 0 || dims.Global < dims.N {
		return 0, device.NewError(device.KindLaunch, "launch "+kr.KernelName,
			fmt.Errorf("invalid launch dims %+v", dims))
	}
	if err := kr.checkLength(dims.N); err != nil {
		return 0, err
	}

	start := time.Now()
	if err := kr.Kernel.Launch(dims.Global, dims.Local); err != nil {
		return 0, fmt.Errorf("kernel execution failed: %w", err)
	}
	if err := kr.Device.Finish(); err != nil {
		return 0, device.NewError(device.KindLaunch, "wait for "+kr.KernelName, err)
	}
	elapsed := time.Since(start)

	kr.launches++
	kr.state = Launched
	return elapsed, nil
}

// checkLength verifies every array holds exactly n elements, so the index
// space matches the buffers
func (kr *Runner) checkLength(n int) error {
	for _, p := range kr.params {
		if p.IsArray() && p.Size != int64(n) {
			return device.NewError(device.KindLaunch, "launch "+kr.KernelName,
				fmt.Errorf("array %s has %d elements, index space is %d", p.Name, p.Size, n))
		}
	}
	return nil
}
