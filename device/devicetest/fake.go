// Package devicetest provides an in-memory device.Device for tests that need
// the pipeline stages without a GPU or an OCCA install. Its kernels add the
// first two int32 buffer arguments into the third.
package devicetest

import (
	"fmt"

	"github.com/notargets/vecadd/device"
)

// Device records every call made against it. Setting one of the error fields
// makes the matching stage fail.
type Device struct {
	DeviceName  string
	DeviceClass device.Class

	BuildErr  error
	AllocErr  error
	LaunchErr error
	// FailAlloc fails the n-th allocation (1-based); 0 never fails
	FailAlloc int
	// LocalSize is returned by AppliesLocalSize
	LocalSize bool

	Sources  []string
	Kernels  []*Kernel
	Buffers  []*Buffer
	Finishes int
	Freed    int
}

// New returns a GPU-class fake device
func New() *Device {
	return &Device{DeviceName: "fake", DeviceClass: device.ClassGPU, LocalSize: true}
}

func (d *Device) Backend() string     { return "fake" }
func (d *Device) Name() string        { return d.DeviceName }
func (d *Device) Class() device.Class { return d.DeviceClass }

func (d *Device) Build(source, kernelName string) (device.Kernel, error) {
	d.Sources = append(d.Sources, source)
	if d.BuildErr != nil {
		return nil, device.NewBuildError("build program", "fake: "+d.BuildErr.Error(), d.BuildErr)
	}
	k := &Kernel{Name: kernelName, device: d}
	d.Kernels = append(d.Kernels, k)
	return k, nil
}

func (d *Device) Alloc(bytes int64, access device.Access) (device.Buffer, error) {
	if d.AllocErr != nil || (d.FailAlloc > 0 && len(d.Buffers)+1 == d.FailAlloc) {
		err := d.AllocErr
		if err == nil {
			err = fmt.Errorf("allocation %d refused", d.FailAlloc)
		}
		return nil, device.NewError(device.KindBufferAllocation, "allocate buffer", err)
	}
	if bytes%4 != 0 {
		return nil, device.NewError(device.KindBufferAllocation, "allocate buffer",
			fmt.Errorf("%d bytes is not a whole number of int32 values", bytes))
	}
	b := &Buffer{Data: make([]int32, bytes/4), access: access}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) AppliesLocalSize() bool { return d.LocalSize }

func (d *Device) Finish() error {
	d.Finishes++
	return nil
}

func (d *Device) Free() {
	d.Freed++
}

// Kernel remembers its arguments and computes on Launch
type Kernel struct {
	Name     string
	Args     []interface{}
	Launches []int
	Freed    int

	device *Device
}

func (k *Kernel) SetArg(index int, value interface{}) error {
	switch value.(type) {
	case *Buffer, int32, int64, float32, float64:
	default:
		return device.NewError(device.KindArgumentBinding, "set kernel argument",
			fmt.Errorf("unsupported argument type %T", value))
	}
	for len(k.Args) <= index {
		k.Args = append(k.Args, nil)
	}
	k.Args[index] = value
	return nil
}

// Launch writes buf[2][i] = buf[0][i] + buf[1][i] for every i below the
// buffer length, ignoring padded work-items
func (k *Kernel) Launch(global, local int) error {
	if k.device.LaunchErr != nil {
		return device.NewError(device.KindLaunch, "enqueue kernel", k.device.LaunchErr)
	}
	if local > 0 && global%local != 0 {
		return device.NewError(device.KindLaunch, "enqueue kernel",
			fmt.Errorf("global size %d is not a multiple of %d", global, local))
	}
	var bufs []*Buffer
	for _, a := range k.Args {
		if b, ok := a.(*Buffer); ok {
			bufs = append(bufs, b)
		}
	}
	if len(bufs) < 3 {
		return device.NewError(device.KindLaunch, "enqueue kernel",
			fmt.Errorf("want three buffer arguments, have %d", len(bufs)))
	}
	a, b, out := bufs[0].Data, bufs[1].Data, bufs[2].Data
	for i := 0; i < global && i < len(out); i++ {
		out[i] = a[i] + b[i]
	}
	k.Launches = append(k.Launches, global)
	return nil
}

func (k *Kernel) Free() {
	k.Freed++
}

// Buffer holds int32 device data
type Buffer struct {
	Data   []int32
	Writes int
	Reads  int
	Freed  int

	access device.Access
}

func (b *Buffer) Bytes() int64          { return int64(len(b.Data)) * 4 }
func (b *Buffer) Access() device.Access { return b.access }

func (b *Buffer) Write(src interface{}) error {
	v, ok := src.([]int32)
	if !ok || len(v) != len(b.Data) {
		return device.NewError(device.KindBufferTransfer, "write buffer",
			fmt.Errorf("host value %T does not match %d int32 values", src, len(b.Data)))
	}
	copy(b.Data, v)
	b.Writes++
	return nil
}

func (b *Buffer) Read(dst interface{}) error {
	v, ok := dst.([]int32)
	if !ok || len(v) != len(b.Data) {
		return device.NewError(device.KindBufferTransfer, "read buffer",
			fmt.Errorf("host value %T does not match %d int32 values", dst, len(b.Data)))
	}
	copy(v, b.Data)
	b.Reads++
	return nil
}

func (b *Buffer) Free() {
	b.Freed++
}
