package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/device/devicetest"
	"github.com/notargets/vecadd/runner/builder"
)

// testConfig returns a variant preset pointing at the kernel files in the
// repository root
func testConfig(t *testing.T, variant string, n int) *config.Config {
	cfg, err := config.ForVariant(variant)
	require.NoError(t, err)
	cfg.Size = n
	cfg.RandomSeed = false
	cfg.KernelFile = "../" + strings.TrimPrefix(cfg.KernelFile, "./")
	cfg.OKLKernelFile = "../" + strings.TrimPrefix(cfg.OKLKernelFile, "./")
	return cfg
}

func openFake(dev *devicetest.Device) OpenFunc {
	return func(*config.Config, io.Writer) (device.Device, error) {
		return dev, nil
	}
}

func TestRun_Sums(t *testing.T) {
	for _, variant := range []string{config.VariantOps, config.VariantAdd} {
		for _, n := range []int{1, 15, 16, 100000} {
			t.Run(fmt.Sprintf("%s/N=%d", variant, n), func(t *testing.T) {
				dev := devicetest.New()
				cfg := testConfig(t, variant, n)
				cfg.Verify = true

				var stdout bytes.Buffer
				res, err := Run(cfg, Options{Stdout: &stdout, Open: openFake(dev)})
				require.NoError(t, err)

				require.Len(t, res.Out, n)
				for i := range res.Out {
					if res.Out[i] != res.A[i]+res.B[i] {
						t.Fatalf("element %d: want %d, got %d", i, res.A[i]+res.B[i], res.Out[i])
					}
				}
				assert.Equal(t, builder.NewLaunchDims(n, cfg.WorkGroupSize), res.Dims)
				assert.Len(t, res.Launches, 1)
				assert.Equal(t, 3, strings.Count(stdout.String(), "----------------------------\n"))
				assert.Contains(t, stdout.String(), "Kernel Execution Time: ")
				assert.True(t, strings.HasSuffix(stdout.String(), " ms\n"))

				// Buffers hold exactly N elements, whatever the padding
				for _, buf := range dev.Buffers {
					assert.Equal(t, int64(n)*4, buf.Bytes())
				}
				assert.Equal(t, 1, dev.Freed)
			})
		}
	}
}

func TestRun_Output(t *testing.T) {
	dev := devicetest.New()
	cfg := testConfig(t, config.VariantAdd, 3)

	var stdout bytes.Buffer
	res, err := Run(cfg, Options{Stdout: &stdout, Open: openFake(dev)})
	require.NoError(t, err)

	sep := "\n----------------------------\n"
	want := fmt.Sprintf("%d %d %d %s%d %d %d %s%d %d %d %s",
		res.A[0], res.A[1], res.A[2], sep,
		res.B[0], res.B[1], res.B[2], sep,
		res.Out[0], res.Out[1], res.Out[2], sep)
	assert.True(t, strings.HasPrefix(stdout.String(), want), stdout.String())
}

func TestRun_NoPrint(t *testing.T) {
	cfg := testConfig(t, config.VariantOps, 100)
	cfg.Print = false

	var stdout bytes.Buffer
	_, err := Run(cfg, Options{Stdout: &stdout, Open: openFake(devicetest.New())})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "Kernel Execution Time: "))
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
}

func TestRun_Preamble(t *testing.T) {
	dev := devicetest.New()
	cfg := testConfig(t, config.VariantAdd, 100000)
	_, err := Run(cfg, Options{Open: openFake(dev)})
	require.NoError(t, err)

	require.Len(t, dev.Sources, 1)
	src := dev.Sources[0]
	assert.Contains(t, src, "#define VECTOR_SIZE 100000")
	assert.Contains(t, src, "#define WORK_GROUP_SIZE 64")
	assert.Contains(t, src, "__kernel void vector_add(")
	assert.Equal(t, []int{100032}, dev.Kernels[0].Launches)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testConfig(t, config.VariantAdd, 1000)
	cfg.Seed = 42

	first, err := Run(cfg, Options{Open: openFake(devicetest.New())})
	require.NoError(t, err)
	second, err := Run(cfg, Options{Open: openFake(devicetest.New())})
	require.NoError(t, err)

	assert.Equal(t, first.A, second.A)
	assert.Equal(t, first.B, second.B)
	assert.Equal(t, first.Out, second.Out)
}

func TestRun_MissingSource(t *testing.T) {
	dev := devicetest.New()
	cfg := testConfig(t, config.VariantOps, 10)
	cfg.KernelFile = "../does_not_exist.cl"

	_, err := Run(cfg, Options{Open: openFake(dev)})
	require.Error(t, err)
	assert.True(t, device.IsKind(err, device.KindSourceNotFound))
	assert.Empty(t, dev.Sources, "no build without source")
	assert.Empty(t, dev.Buffers, "no allocation without source")
	assert.Equal(t, 1, dev.Freed)
}

func TestRun_BuildFailure(t *testing.T) {
	dev := devicetest.New()
	dev.BuildErr = errors.New("error: expected ';' after expression")
	cfg := testConfig(t, config.VariantAdd, 10)

	var stdout bytes.Buffer
	_, err := Run(cfg, Options{Stdout: &stdout, Open: openFake(dev)})
	require.Error(t, err)
	assert.True(t, device.IsKind(err, device.KindProgramBuild))
	assert.Contains(t, device.BuildLog(err), "expected ';'")
	assert.Empty(t, dev.Kernels)
	assert.Empty(t, dev.Buffers)
	assert.NotContains(t, stdout.String(), "Kernel Execution Time")
	assert.Equal(t, 1, dev.Freed)
}

func TestRun_AllocationFailure(t *testing.T) {
	dev := devicetest.New()
	dev.FailAlloc = 2
	cfg := testConfig(t, config.VariantAdd, 10)

	_, err := Run(cfg, Options{Open: openFake(dev)})
	require.Error(t, err)
	assert.True(t, device.IsKind(err, device.KindBufferAllocation))
	require.Len(t, dev.Buffers, 1)
	assert.Equal(t, 1, dev.Buffers[0].Freed)
	assert.Equal(t, 1, dev.Kernels[0].Freed)
	assert.Empty(t, dev.Kernels[0].Launches)
	assert.Equal(t, 1, dev.Freed)
}

func TestRun_LaunchFailure(t *testing.T) {
	dev := devicetest.New()
	dev.LaunchErr = errors.New("CL_OUT_OF_RESOURCES")
	cfg := testConfig(t, config.VariantOps, 10)

	_, err := Run(cfg, Options{Open: openFake(dev)})
	require.Error(t, err)
	assert.True(t, device.IsKind(err, device.KindLaunch))
	for _, buf := range dev.Buffers {
		assert.Zero(t, buf.Reads, "no read back after a failed launch")
		assert.Equal(t, 1, buf.Freed)
	}
}

func TestRun_OpenFailure(t *testing.T) {
	boom := device.NewError(device.KindDeviceNotFound, "select device", errors.New("no GPU or CPU device available"))
	cfg := testConfig(t, config.VariantOps, 10)

	_, err := Run(cfg, Options{Open: func(*config.Config, io.Writer) (device.Device, error) {
		return nil, boom
	}})
	assert.ErrorIs(t, err, boom)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, config.VariantOps, 0)
	opened := false
	_, err := Run(cfg, Options{Open: func(*config.Config, io.Writer) (device.Device, error) {
		opened = true
		return devicetest.New(), nil
	}})
	assert.True(t, device.IsKind(err, device.KindInvalidConfig))
	assert.False(t, opened)
}

func TestBench(t *testing.T) {
	dev := devicetest.New()
	cfg := testConfig(t, config.VariantAdd, 256)
	cfg.Print = false

	res, err := Bench(cfg, 5, Options{Open: openFake(dev)})
	require.NoError(t, err)
	assert.Len(t, res.Launches, 5)
	assert.Len(t, dev.Kernels[0].Launches, 5)
	for _, buf := range dev.Buffers[:2] {
		assert.Equal(t, 1, buf.Writes, "inputs are written once per session")
	}
	assert.Equal(t, 1, dev.Buffers[2].Reads)

	_, err = Bench(cfg, 0, Options{Open: openFake(devicetest.New())})
	assert.True(t, device.IsKind(err, device.KindInvalidConfig))
}

func TestGenerateKernel(t *testing.T) {
	src, err := GenerateKernel(config.Default(), builder.OpenCLC)
	require.NoError(t, err)
	assert.Contains(t, src, "__kernel void vector_add_ocl(")
	assert.Contains(t, src, "const int n")
	assert.Contains(t, src, "v_out[i] = v1[i] + v2[i];")

	add, err := config.ForVariant(config.VariantAdd)
	require.NoError(t, err)
	src, err = GenerateKernel(add, builder.OKL)
	require.NoError(t, err)
	assert.Contains(t, src, "@kernel void vector_add(")
	assert.Contains(t, src, "c[i] = a[i] + b[i];")
}

func TestRun_LocalSizeDiagnostic(t *testing.T) {
	warning := "Work-group size 64 is not applied by the fake backend"

	t.Run("Dropped", func(t *testing.T) {
		dev := devicetest.New()
		dev.LocalSize = false
		cfg := testConfig(t, config.VariantAdd, 100)

		var stderr bytes.Buffer
		_, err := Run(cfg, Options{Stderr: &stderr, Open: openFake(dev)})
		require.NoError(t, err)
		assert.Contains(t, stderr.String(), warning)
	})

	t.Run("Applied", func(t *testing.T) {
		cfg := testConfig(t, config.VariantAdd, 100)
		var stderr bytes.Buffer
		_, err := Run(cfg, Options{Stderr: &stderr, Open: openFake(devicetest.New())})
		require.NoError(t, err)
		assert.NotContains(t, stderr.String(), "is not applied")
	})

	t.Run("RuntimeChooses", func(t *testing.T) {
		dev := devicetest.New()
		dev.LocalSize = false
		cfg := testConfig(t, config.VariantOps, 100)
		var stderr bytes.Buffer
		_, err := Run(cfg, Options{Stderr: &stderr, Open: openFake(dev)})
		require.NoError(t, err)
		assert.NotContains(t, stderr.String(), "is not applied")
	})
}
