package device

import (
	"fmt"
	"io"
	"strings"

	"github.com/opengs/go-opencl/opencl"
)

// OpenCLDevice is a device on the first OpenCL platform together with the
// context and the single in-order command queue built for it.
type OpenCLDevice struct {
	Platform opencl.Platform
	Device   opencl.Device
	Context  opencl.Context
	Queue    opencl.CommandQueue

	class     Class
	name      string
	programs  []opencl.Program
	haveCtx   bool
	haveQueue bool
	freed     bool
}

// SelectOpenCL picks a GPU on the first OpenCL platform, falling back to a CPU
// on the same platform, then builds a context and an in-order queue for it.
func SelectOpenCL(log io.Writer) (*OpenCLDevice, error) {
	platforms, err := opencl.GetPlatforms()
	if err != nil {
		return nil, NewError(KindPlatformNotFound, "get platforms", err)
	}
	if len(platforms) == 0 {
		return nil, NewError(KindPlatformNotFound, "get platforms",
			fmt.Errorf("no OpenCL platform installed"))
	}
	platform := platforms[0]

	dev, class, err := selectClass(log, func(class Class) (opencl.Device, bool, error) {
		devType := opencl.DeviceTypeGPU
		if class == ClassCPU {
			devType = opencl.DeviceTypeCPU
		}
		devices, err := platform.GetDevices(devType)
		return firstDevice(devices, err, class)
	})
	if err != nil {
		return nil, err
	}

	d := &OpenCLDevice{
		Platform: platform,
		Device:   dev,
		class:    class,
	}
	d.name = d.describe()

	if err := d.createContextAndQueue(); err != nil {
		d.Free()
		return nil, err
	}
	return d, nil
}

// firstDevice takes the first device of a clGetDeviceIDs query.
// CL_DEVICE_NOT_FOUND means the class is absent; any other error is fatal.
func firstDevice[T any](devices []T, err error, class Class) (T, bool, error) {
	var none T
	if err != nil {
		if isDeviceNotFound(err) {
			return none, false, nil
		}
		return none, false, NewError(KindDeviceNotFound, "get "+class.String()+" devices", err)
	}
	if len(devices) == 0 {
		return none, false, nil
	}
	return devices[0], true, nil
}

// isDeviceNotFound matches CL_DEVICE_NOT_FOUND (-1) in a binding error
func isDeviceNotFound(err error) bool {
	msg := strings.ToUpper(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "DEVICE_NOT_FOUND") || strings.Contains(msg, "DEVICE NOT FOUND") {
		return true
	}
	code := msg[strings.LastIndexAny(msg, " :(")+1:]
	code = strings.TrimSuffix(code, ")")
	return code == "-1"
}

func (d *OpenCLDevice) describe() string {
	var platformName, vendor string
	if err := d.Platform.GetInfo(opencl.PlatformName, &platformName); err != nil {
		platformName = "unknown platform"
	}
	if err := d.Device.GetInfo(opencl.DeviceVendor, &vendor); err != nil {
		vendor = "unknown vendor"
	}
	return fmt.Sprintf("%s (%s)", vendor, platformName)
}

func (d *OpenCLDevice) createContextAndQueue() error {
	ctx, err := d.Device.CreateContext()
	if err != nil {
		return NewError(KindContextCreation, "create context", err)
	}
	d.Context = ctx
	d.haveCtx = true

	queue, err := ctx.CreateCommandQueue(d.Device)
	if err != nil {
		return NewError(KindQueueCreation, "create command queue", err)
	}
	d.Queue = queue
	d.haveQueue = true
	return nil
}

func (d *OpenCLDevice) Backend() string { return "opencl" }
func (d *OpenCLDevice) Name() string    { return d.name }
func (d *OpenCLDevice) Class() Class    { return d.class }

// AppliesLocalSize is false: the binding's NDRange enqueue takes no local size
func (d *OpenCLDevice) AppliesLocalSize() bool { return false }

// Build creates a program from source, builds it for the selected device and
// creates the named kernel. A failed build returns the full build log.
func (d *OpenCLDevice) Build(source, kernelName string) (Kernel, error) {
	program, err := d.Context.CreateProgramWithSource(source)
	if err != nil {
		return nil, NewError(KindProgramBuild, "create program", err)
	}
	d.programs = append(d.programs, program)

	var buildLog string
	if err := program.Build(d.Device, &buildLog); err != nil {
		return nil, NewBuildError("build program", buildLog, err)
	}

	kernel, err := program.CreateKernel(kernelName)
	if err != nil {
		return nil, NewError(KindKernelCreation, "create kernel "+kernelName, err)
	}
	return &openCLKernel{kernel: kernel, queue: d.Queue}, nil
}

// Alloc creates a device buffer with the access hint mapped to cl_mem_flags
func (d *OpenCLDevice) Alloc(bytes int64, access Access) (Buffer, error) {
	if bytes <= 0 {
		return nil, NewError(KindBufferAllocation, "create buffer",
			fmt.Errorf("invalid size %d", bytes))
	}
	flag := opencl.MemReadWrite
	switch access {
	case ReadOnly:
		flag = opencl.MemReadOnly
	case WriteOnly:
		flag = opencl.MemWriteOnly
	}

	buf, err := d.Context.CreateBuffer([]opencl.MemFlags{flag}, uint64(bytes))
	if err != nil {
		return nil, NewError(KindBufferAllocation, "create buffer", err)
	}
	return &openCLBuffer{buffer: buf, queue: d.Queue, bytes: bytes, access: access}, nil
}

// Finish drains the command queue
func (d *OpenCLDevice) Finish() error {
	d.Queue.Flush()
	d.Queue.Finish()
	return nil
}

// Free releases the queue, the programs and the context. Safe to call twice.
func (d *OpenCLDevice) Free() {
	if d.freed {
		return
	}
	d.freed = true
	if d.haveQueue {
		d.Queue.Release()
	}
	for _, p := range d.programs {
		p.Release()
	}
	d.programs = nil
	if d.haveCtx {
		d.Context.Release()
	}
}

type openCLKernel struct {
	kernel opencl.Kernel
	queue  opencl.CommandQueue
	freed  bool
}

func (k *openCLKernel) SetArg(index int, value interface{}) error {
	var err error
	switch v := value.(type) {
	case *openCLBuffer:
		err = k.kernel.SetArg(uint32(index), v.buffer.Size(), &v.buffer)
	case int32:
		err = k.kernel.SetArg(uint32(index), 4, &v)
	case int64:
		err = k.kernel.SetArg(uint32(index), 8, &v)
	case float32:
		err = k.kernel.SetArg(uint32(index), 4, &v)
	case float64:
		err = k.kernel.SetArg(uint32(index), 8, &v)
	default:
		err = fmt.Errorf("unsupported argument type %T", value)
	}
	if err != nil {
		return NewError(KindArgumentBinding, fmt.Sprintf("set kernel argument %d", index), err)
	}
	return nil
}

// Launch enqueues the kernel over global work-items. The binding does not take
// a local size, so the runtime picks the work-group size; callers pad global
// to a multiple of their group size and the kernel guards the tail.
func (k *openCLKernel) Launch(global, local int) error {
	if global <= 0 {
		return NewError(KindLaunch, "enqueue kernel", fmt.Errorf("invalid global size %d", global))
	}
	if local > 0 && global%local != 0 {
		return NewError(KindLaunch, "enqueue kernel",
			fmt.Errorf("global size %d is not a multiple of work-group size %d", global, local))
	}
	if err := k.queue.EnqueueNDRangeKernel(k.kernel, 1, []uint64{uint64(global)}); err != nil {
		return NewError(KindLaunch, "enqueue kernel", err)
	}
	return nil
}

func (k *openCLKernel) Free() {
	if k.freed {
		return
	}
	k.freed = true
	k.kernel.Release()
}

type openCLBuffer struct {
	buffer opencl.Buffer
	queue  opencl.CommandQueue
	bytes  int64
	access Access
	freed  bool
}

func (b *openCLBuffer) Bytes() int64   { return b.bytes }
func (b *openCLBuffer) Access() Access { return b.access }

func (b *openCLBuffer) Write(src interface{}) error {
	if _, err := checkTransfer("write buffer", src, b.bytes); err != nil {
		return err
	}
	if err := b.queue.EnqueueWriteBuffer(b.buffer, true, src); err != nil {
		return NewError(KindBufferTransfer, "write buffer", err)
	}
	return nil
}

func (b *openCLBuffer) Read(dst interface{}) error {
	if _, err := checkTransfer("read buffer", dst, b.bytes); err != nil {
		return err
	}
	if err := b.queue.EnqueueReadBuffer(b.buffer, true, dst); err != nil {
		return NewError(KindBufferTransfer, "read buffer", err)
	}
	return nil
}

func (b *openCLBuffer) Free() {
	if b.freed {
		return
	}
	b.freed = true
	b.buffer.Release()
}
