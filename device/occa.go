package device

import (
	"fmt"
	"io"
	"strings"

	"github.com/notargets/gocca"
)

// OCCAMode is one OCCA backend to try when opening a device
type OCCAMode struct {
	Props string
	Class Class
}

// DefaultOCCAModes lists GPU-class backends first, then CPU-class ones
var DefaultOCCAModes = []OCCAMode{
	{`{"mode": "CUDA", "device_id": 0}`, ClassGPU},
	{`{"mode": "HIP", "device_id": 0}`, ClassGPU},
	{`{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`, ClassGPU},
	{`{"mode": "Metal", "device_id": 0}`, ClassGPU},
	{`{"mode": "OpenMP"}`, ClassCPU},
	{`{"mode": "Serial"}`, ClassCPU},
}

// ParseOCCAModes turns mode names ("CUDA", "OpenMP", ...) into OCCAModes.
// Unknown names are an error. An empty list yields DefaultOCCAModes.
func ParseOCCAModes(names []string) ([]OCCAMode, error) {
	if len(names) == 0 {
		return DefaultOCCAModes, nil
	}
	modes := make([]OCCAMode, 0, len(names))
	for _, name := range names {
		found := false
		for _, m := range DefaultOCCAModes {
			if strings.EqualFold(modeName(m.Props), name) {
				modes = append(modes, m)
				found = true
				break
			}
		}
		if !found {
			return nil, NewError(KindInvalidConfig, "parse OCCA modes",
				fmt.Errorf("unknown OCCA mode %q", name))
		}
	}
	return modes, nil
}

// modeName extracts the mode value from an OCCA property string
func modeName(props string) string {
	const key = `"mode": "`
	i := strings.Index(props, key)
	if i < 0 {
		return ""
	}
	rest := props[i+len(key):]
	if j := strings.Index(rest, `"`); j >= 0 {
		return rest[:j]
	}
	return rest
}

// OCCADevice is an OCCA device. OCCA owns the context and a default in-order
// stream per device, so the device handle covers both.
type OCCADevice struct {
	Device *gocca.OCCADevice
	class  Class
	freed  bool
}

// SelectOCCA opens the first OCCA mode that works, trying GPU-class modes
// before CPU-class ones
func SelectOCCA(modes []OCCAMode, log io.Writer) (*OCCADevice, error) {
	if len(modes) == 0 {
		modes = DefaultOCCAModes
	}

	dev, class, err := selectClass(log, func(class Class) (*gocca.OCCADevice, bool, error) {
		for _, m := range modes {
			if m.Class != class {
				continue
			}
			d, err := gocca.NewDevice(m.Props)
			if err == nil && d != nil {
				return d, true, nil
			}
		}
		return nil, false, nil
	})
	if err != nil {
		return nil, err
	}
	return &OCCADevice{Device: dev, class: class}, nil
}

// WrapOCCA adopts an already created OCCA device
func WrapOCCA(dev *gocca.OCCADevice) *OCCADevice {
	class := ClassCPU
	switch dev.Mode() {
	case "CUDA", "HIP", "OpenCL", "Metal":
		class = ClassGPU
	}
	return &OCCADevice{Device: dev, class: class}
}

func (d *OCCADevice) Backend() string { return "occa" }
func (d *OCCADevice) Name() string    { return d.Device.Mode() }
func (d *OCCADevice) Class() Class    { return d.class }

// AppliesLocalSize is true: the group size is the @tile size set by the preamble
func (d *OCCADevice) AppliesLocalSize() bool { return true }

// Build compiles OKL source. OCCA reports compiler output through the error.
func (d *OCCADevice) Build(source, kernelName string) (Kernel, error) {
	var kernel *gocca.OCCAKernel
	var err error

	if d.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = d.Device.BuildKernelFromString(source, kernelName, props)
	} else {
		kernel, err = d.Device.BuildKernelFromString(source, kernelName, nil)
	}

	if err != nil {
		return nil, NewBuildError("build kernel "+kernelName, err.Error(), err)
	}
	if kernel == nil {
		return nil, NewError(KindKernelCreation, "build kernel "+kernelName,
			fmt.Errorf("kernel build returned nil"))
	}
	return &occaKernel{kernel: kernel}, nil
}

// Alloc allocates uninitialised device memory. OCCA has no access hints; the
// hint is kept for reporting only.
func (d *OCCADevice) Alloc(bytes int64, access Access) (Buffer, error) {
	if bytes <= 0 {
		return nil, NewError(KindBufferAllocation, "malloc", fmt.Errorf("invalid size %d", bytes))
	}
	mem := d.Device.Malloc(bytes, nil, nil)
	if mem == nil {
		return nil, NewError(KindBufferAllocation, "malloc",
			fmt.Errorf("device returned no memory for %d bytes", bytes))
	}
	return &occaBuffer{mem: mem, bytes: bytes, access: access}, nil
}

func (d *OCCADevice) Finish() error {
	d.Device.Finish()
	return nil
}

func (d *OCCADevice) Free() {
	if d.freed {
		return
	}
	d.freed = true
	d.Device.Free()
}

type occaKernel struct {
	kernel *gocca.OCCAKernel
	args   []interface{}
	freed  bool
}

func (k *occaKernel) SetArg(index int, value interface{}) error {
	if index < 0 {
		return NewError(KindArgumentBinding, "set kernel argument", fmt.Errorf("negative index %d", index))
	}
	var arg interface{}
	switch v := value.(type) {
	case *occaBuffer:
		arg = v.mem
	case int32, int64, float32, float64:
		arg = v
	default:
		return NewError(KindArgumentBinding, fmt.Sprintf("set kernel argument %d", index),
			fmt.Errorf("unsupported argument type %T", value))
	}
	for len(k.args) <= index {
		k.args = append(k.args, nil)
	}
	k.args[index] = arg
	return nil
}

// Launch runs the kernel. The index space and tiling come from the OKL
// @tile loop, so global and local are only checked here.
func (k *occaKernel) Launch(global, local int) error {
	if global <= 0 {
		return NewError(KindLaunch, "run kernel", fmt.Errorf("invalid global size %d", global))
	}
	for i, a := range k.args {
		if a == nil {
			return NewError(KindArgumentBinding, "run kernel", fmt.Errorf("argument %d not bound", i))
		}
	}
	if err := k.kernel.RunWithArgs(k.args...); err != nil {
		return NewError(KindLaunch, "run kernel", err)
	}
	return nil
}

func (k *occaKernel) Free() {
	if k.freed {
		return
	}
	k.freed = true
	k.kernel.Free()
}

type occaBuffer struct {
	mem    *gocca.OCCAMemory
	bytes  int64
	access Access
	freed  bool
}

func (b *occaBuffer) Bytes() int64   { return b.bytes }
func (b *occaBuffer) Access() Access { return b.access }

func (b *occaBuffer) Write(src interface{}) error {
	ptr, err := checkTransfer("copy to device", src, b.bytes)
	if err != nil {
		return err
	}
	b.mem.CopyFrom(ptr, b.bytes)
	return nil
}

func (b *occaBuffer) Read(dst interface{}) error {
	ptr, err := checkTransfer("copy from device", dst, b.bytes)
	if err != nil {
		return err
	}
	b.mem.CopyTo(ptr, b.bytes)
	return nil
}

func (b *occaBuffer) Free() {
	if b.freed {
		return
	}
	b.freed = true
	b.mem.Free()
}
