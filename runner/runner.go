package runner

import (
	"fmt"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/runner/builder"
)

// Runner holds every handle of one compute session: the selected device with
// its context and queue, the compiled kernel, and one pooled device buffer per
// array parameter. It is driven through the pipeline stages in order and
// released with Free, which is safe to defer right after NewRunner.
type Runner struct {
	Device       device.Device
	Kernel       device.Kernel
	KernelName   string
	PooledMemory map[string]device.Buffer

	params       []builder.ParamSpec
	allocOrder   []string
	inputsCopied bool
	launches     int
	state        State
}

// NewRunner creates a Runner on a device whose context and queue are built
func NewRunner(dev device.Device) *Runner {
	if dev == nil {
		panic("NewRunner requires a device")
	}
	return &Runner{
		Device:       dev,
		PooledMemory: make(map[string]device.Buffer),
		state:        ContextReady,
	}
}

// State returns the current pipeline state
func (kr *Runner) State() State {
	return kr.state
}

// Launches returns how many times the kernel has been launched
func (kr *Runner) Launches() int {
	return kr.launches
}

// BuildProgram compiles kernel source for the device and creates the named
// kernel. A failed build carries the compiler log (see device.BuildLog).
func (kr *Runner) BuildProgram(source, kernelName string) error {
	if err := kr.require("BuildProgram", ContextReady); err != nil {
		return err
	}

	kernel, err := kr.Device.Build(source, kernelName)
	if err != nil {
		return fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return device.NewError(device.KindKernelCreation, "build "+kernelName,
			fmt.Errorf("kernel build returned nil"))
	}

	kr.Kernel = kernel
	kr.KernelName = kernelName
	kr.state = ProgramBuilt
	return nil
}

// AllocateBuffers records the kernel parameters in argument order and
// allocates one device buffer of exactly Size × element size bytes for each
// array parameter
func (kr *Runner) AllocateBuffers(params ...*builder.ParamBuilder) error {
	if err := kr.require("AllocateBuffers", ProgramBuilt); err != nil {
		return err
	}

	specs := make([]builder.ParamSpec, len(params))
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p == nil {
			return fmt.Errorf("parameter %d is nil", i)
		}
		specs[i] = p.Spec
		if err := specs[i].Validate(); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
		if seen[specs[i].Name] {
			return fmt.Errorf("parameter %d: duplicate name %s", i, specs[i].Name)
		}
		seen[specs[i].Name] = true
	}

	for _, spec := range specs {
		if !spec.IsArray() {
			continue
		}
		if err := kr.allocateSingleArray(spec); err != nil {
			return err
		}
	}

	kr.params = specs
	kr.state = BuffersReady
	return nil
}

// allocateSingleArray allocates and pools the device buffer for one array
func (kr *Runner) allocateSingleArray(spec builder.ParamSpec) error {
	mem, err := kr.Device.Alloc(spec.Bytes(), accessFor(spec.Direction))
	if err != nil {
		return fmt.Errorf("failed to allocate %s: %w", spec.Name, err)
	}
	if mem == nil {
		return device.NewError(device.KindBufferAllocation, "allocate "+spec.Name,
			fmt.Errorf("device returned a nil buffer"))
	}
	kr.PooledMemory[spec.Name] = mem
	kr.allocOrder = append(kr.allocOrder, spec.Name)
	return nil
}

// accessFor maps a parameter direction to the device access hint
func accessFor(dir builder.Direction) device.Access {
	switch dir {
	case builder.DirectionInput:
		return device.ReadOnly
	case builder.DirectionOutput:
		return device.WriteOnly
	default:
		return device.ReadWrite
	}
}

// GetMemory returns the device buffer for a named array
func (kr *Runner) GetMemory(arrayName string) device.Buffer {
	return kr.PooledMemory[arrayName]
}

// GetAllocatedArrays returns array names in allocation order
func (kr *Runner) GetAllocatedArrays() []string {
	names := make([]string, len(kr.allocOrder))
	copy(names, kr.allocOrder)
	return names
}

// Free releases device buffers, the kernel, then the device (queue, program,
// context). Every handle is released at most once, whatever state the
// runner reached.
func (kr *Runner) Free() {
	if kr.state == Released {
		return
	}

	// Free memory in allocation order
	for _, name := range kr.allocOrder {
		if mem := kr.PooledMemory[name]; mem != nil {
			mem.Free()
		}
		delete(kr.PooledMemory, name)
	}
	kr.allocOrder = nil

	if kr.Kernel != nil {
		kr.Kernel.Free()
		kr.Kernel = nil
	}

	if kr.Device != nil {
		kr.Device.Free()
	}
	kr.state = Released
}
