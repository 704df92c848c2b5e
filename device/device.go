// Package device selects a compute device and exposes the handful of
// operations the vector add pipeline needs from it: program build, buffer
// allocation, argument binding, launch and completion.
//
// Two backends are provided. OpenCLDevice talks to the first OpenCL platform
// directly. OCCADevice goes through OCCA, which can target CUDA, HIP, OpenCL,
// Metal, OpenMP or a serial host loop.
package device

import (
	"fmt"
	"io"
	"strings"
)

// Class is the hardware class of a compute device
type Class int

const (
	ClassGPU Class = iota + 1
	ClassCPU
)

func (c Class) String() string {
	switch c {
	case ClassGPU:
		return "GPU"
	case ClassCPU:
		return "CPU"
	default:
		return "unknown"
	}
}

// Access is the device-side access hint for a buffer
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}

// Device is a selected compute device with its context and in-order queue.
type Device interface {
	// Backend names the runtime driving the device ("opencl" or "occa")
	Backend() string
	Name() string
	Class() Class
	// Build compiles source for this device and returns the named kernel
	Build(source, kernelName string) (Kernel, error)
	Alloc(bytes int64, access Access) (Buffer, error)
	// AppliesLocalSize reports whether Kernel.Launch honours a non-zero
	// local size. When false the runtime picks the work-group size.
	AppliesLocalSize() bool
	// Finish blocks until every command queued on the device has completed
	Finish() error
	Free()
}

// Kernel is a compiled kernel with positional arguments
type Kernel interface {
	// SetArg binds a Buffer or a scalar (int32, int64, float32, float64)
	SetArg(index int, value interface{}) error
	// Launch enqueues a one dimensional invocation. local == 0 lets the
	// runtime choose the work-group size.
	Launch(global, local int) error
	Free()
}

// Buffer is device memory mirroring one host slice
type Buffer interface {
	Bytes() int64
	Access() Access
	// Write performs a blocking host→device copy of a []int32, []int64,
	// []float32 or []float64 whose byte size equals Bytes()
	Write(src interface{}) error
	// Read performs a blocking device→host copy into dst
	Read(dst interface{}) error
	Free()
}

// Describe returns a one line description of the device
func Describe(d Device) string {
	desc := fmt.Sprintf("%s %s device: %s", d.Backend(), d.Class(), d.Name())
	if d.Class() == ClassCPU {
		if feats := HostFeatures(); len(feats) > 0 {
			desc += " [" + strings.Join(feats, " ") + "]"
		}
	}
	return desc
}

// findFunc looks for a device of one class. found == false with a nil error
// means no device of that class exists.
type findFunc[T any] func(class Class) (dev T, found bool, err error)

// selectClass tries a GPU-class device first and falls back to a CPU-class one
func selectClass[T any](log io.Writer, find findFunc[T]) (T, Class, error) {
	dev, found, err := find(ClassGPU)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	if found {
		return dev, ClassGPU, nil
	}

	if log != nil {
		fmt.Fprintln(log, "GPU not found, using CPU")
	}
	dev, found, err = find(ClassCPU)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	if !found {
		var zero T
		return zero, 0, NewError(KindDeviceNotFound, "select device",
			fmt.Errorf("no GPU or CPU device available"))
	}
	return dev, ClassCPU, nil
}
