package device_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/device/devicetest"
	"github.com/notargets/vecadd/utils"
)

func TestDescribe(t *testing.T) {
	gpu := devicetest.New()
	gpu.DeviceName = "Radeon"
	assert.Equal(t, "fake GPU device: Radeon", device.Describe(gpu))

	cpu := devicetest.New()
	cpu.DeviceClass = device.ClassCPU
	assert.True(t, strings.HasPrefix(device.Describe(cpu), "fake CPU device: fake"))
}

func TestOCCADevice_BufferRoundTrip(t *testing.T) {
	dev := utils.CreateTestDevice()
	defer dev.Free()

	assert.Equal(t, device.BackendOCCA, dev.Backend())

	host := []int32{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := dev.Alloc(int64(len(host))*4, device.ReadWrite)
	require.NoError(t, err)
	defer buf.Free()
	assert.Equal(t, int64(32), buf.Bytes())

	require.NoError(t, buf.Write(host))
	back := make([]int32, len(host))
	require.NoError(t, buf.Read(back))
	assert.Equal(t, host, back)

	err = buf.Write(make([]int32, 3))
	assert.True(t, device.IsKind(err, device.KindBufferTransfer))
}

func TestOCCADevice_FreeTwice(t *testing.T) {
	dev := utils.CreateTestDevice()
	dev.Free()
	assert.NotPanics(t, dev.Free)
}

func TestAppliesLocalSize(t *testing.T) {
	// The OpenCL NDRange enqueue carries no local size; OCCA tiles by it
	assert.False(t, (&device.OpenCLDevice{}).AppliesLocalSize())

	dev := utils.CreateTestDevice()
	defer dev.Free()
	assert.True(t, dev.AppliesLocalSize())
}
