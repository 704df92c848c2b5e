// Package pipeline runs the vector add end to end: host vectors, device
// selection, program build, buffers, launch, read back and release. Every
// stage returns its error to the caller; resources acquired before a failure
// are released by the deferred Runner.Free.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/runner"
	"github.com/notargets/vecadd/runner/builder"
	"github.com/notargets/vecadd/utils"
)

// OpenFunc selects a device with its context and queue
type OpenFunc func(cfg *config.Config, log io.Writer) (device.Device, error)

// Options carries the output streams and the device opener
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	// Open defaults to device.Select on cfg.Backend
	Open OpenFunc
}

// Result is what one run produced
type Result struct {
	Device   string
	Dims     builder.LaunchDims
	A, B     []int32
	Out      []int32
	Elapsed  time.Duration
	Launches []time.Duration
}

// DefaultOpen selects a device on the configured backend
func DefaultOpen(cfg *config.Config, log io.Writer) (device.Device, error) {
	return device.Select(cfg.Backend, cfg.OCCAModes, log)
}

// Run executes the pipeline once
func Run(cfg *config.Config, opts Options) (*Result, error) {
	return run(cfg, opts, 1)
}

// Bench executes the pipeline with repeat launches of the same bound kernel
func Bench(cfg *config.Config, repeat int, opts Options) (*Result, error) {
	if repeat < 1 {
		return nil, device.NewError(device.KindInvalidConfig, "bench",
			fmt.Errorf("repeat must be at least 1, got %d", repeat))
	}
	return run(cfg, opts, repeat)
}

func run(cfg *config.Config, opts Options, repeat int) (*Result, error) {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Open == nil {
		opts.Open = DefaultOpen
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Size
	rng := utils.NewRand(cfg.Seed, cfg.RandomSeed)
	res := &Result{
		A:    utils.NewHostVector(n, rng),
		B:    utils.NewHostVector(n, rng),
		Out:  make([]int32, n),
		Dims: builder.NewLaunchDims(n, cfg.WorkGroupSize),
	}
	if cfg.Print {
		utils.PrintVector(opts.Stdout, res.A)
		utils.PrintVector(opts.Stdout, res.B)
	}

	dev, err := opts.Open(cfg, opts.Stdout)
	if err != nil {
		return nil, err
	}
	kr := runner.NewRunner(dev)
	defer kr.Free()

	res.Device = device.Describe(dev)
	fmt.Fprintf(opts.Stderr, "Using %s\n", res.Device)

	src, err := builder.LoadSource(cfg.SourceFor(dev.Backend()))
	if err != nil {
		return nil, err
	}
	if err := kr.BuildProgram(src.WithPreamble(n, cfg.WorkGroupSize), cfg.KernelName); err != nil {
		return nil, err
	}

	if err := kr.AllocateBuffers(VectorParams(cfg, res.A, res.B, res.Out)...); err != nil {
		return nil, err
	}
	if err := kr.CopyInputs(); err != nil {
		return nil, err
	}
	if err := kr.BindArguments(); err != nil {
		return nil, err
	}
	if res.Dims.Local > 0 && !dev.AppliesLocalSize() {
		fmt.Fprintf(opts.Stderr, "Work-group size %d is not applied by the %s backend, the runtime chooses\n",
			res.Dims.Local, dev.Backend())
	}
	if res.Dims.Padded() {
		fmt.Fprintf(opts.Stderr, "Padding index space from %d to %d (work-group size %d)\n",
			res.Dims.N, res.Dims.Global, res.Dims.Local)
	}

	for i := 0; i < repeat; i++ {
		elapsed, err := kr.Launch(res.Dims)
		if err != nil {
			return nil, err
		}
		res.Launches = append(res.Launches, elapsed)
		res.Elapsed += elapsed
	}

	if err := kr.ReadResults(); err != nil {
		return nil, err
	}

	if cfg.Print {
		utils.PrintVector(opts.Stdout, res.Out)
	}
	fmt.Fprintf(opts.Stdout, "Kernel Execution Time: %f ms\n",
		float64(res.Elapsed)/float64(time.Millisecond)/float64(repeat))

	if cfg.Verify {
		if _, _, err := utils.VerifySum(res.A, res.B, res.Out, 5); err != nil {
			return res, err
		}
		fmt.Fprintf(opts.Stderr, "Verified %d elements\n", n)
	}
	return res, nil
}
