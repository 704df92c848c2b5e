package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/notargets/vecadd/device"
)

const (
	VariantOps = "ops"
	VariantAdd = "add"

	DefaultSeed = 1
)

type Config struct {
	Variant string `yaml:"variant"`
	// Size is the vector length N
	Size    int    `yaml:"size"`
	Backend string `yaml:"backend"`
	// OCCAModes restricts the OCCA backends tried, in order ("CUDA", "Serial", ...)
	OCCAModes []string `yaml:"occa_modes,omitempty"`

	KernelFile    string `yaml:"kernel_file"`
	OKLKernelFile string `yaml:"okl_kernel_file"`
	KernelName    string `yaml:"kernel_name"`

	// SizeArg passes N to the kernel as argument 0
	SizeArg bool `yaml:"size_arg"`
	// ReadWrite allocates every buffer read-write instead of read-only inputs
	// and a write-only output
	ReadWrite bool `yaml:"read_write"`
	// WorkGroupSize is the fixed local size; 0 lets the runtime choose
	WorkGroupSize int `yaml:"work_group_size"`

	Seed       int64 `yaml:"seed"`
	RandomSeed bool  `yaml:"random_seed"`
	Print      bool  `yaml:"print"`
	Verify     bool  `yaml:"verify"`
}

// Variants holds the two program configurations the pipeline replaces
var Variants = map[string]Config{
	VariantOps: {
		Variant:       VariantOps,
		Size:          100000000,
		Backend:       device.BackendOpenCL,
		KernelFile:    "./vector_ops_ocl.cl",
		OKLKernelFile: "./vector_ops_ocl.okl",
		KernelName:    "vector_add_ocl",
		SizeArg:       true,
		ReadWrite:     true,
		WorkGroupSize: 0,
		Seed:          DefaultSeed,
		Print:         true,
	},
	VariantAdd: {
		Variant:       VariantAdd,
		Size:          100000,
		Backend:       device.BackendOpenCL,
		KernelFile:    "./vector_add.cl",
		OKLKernelFile: "./vector_add.okl",
		KernelName:    "vector_add",
		SizeArg:       false,
		ReadWrite:     false,
		WorkGroupSize: 64,
		Seed:          DefaultSeed,
		RandomSeed:    true,
		Print:         true,
	},
}

// Default returns the configuration of the ops variant
func Default() *Config {
	cfg, _ := ForVariant(VariantOps)
	return cfg
}

// ForVariant returns a copy of the named variant's configuration
func ForVariant(name string) (*Config, error) {
	v, ok := Variants[strings.ToLower(name)]
	if !ok {
		return nil, device.NewError(device.KindInvalidConfig, "select variant",
			fmt.Errorf("unknown variant %q (want %s or %s)", name, VariantOps, VariantAdd))
	}
	cfg := v
	cfg.OCCAModes = append([]string(nil), v.OCCAModes...)
	return &cfg, nil
}

// Load reads a YAML file. Fields missing from the file keep the values of the
// variant named in the file, or else of fallback (the ops variant when empty).
func Load(path, fallback string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Variant string `yaml:"variant"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	variant := head.Variant
	if variant == "" {
		variant = fallback
	}
	if variant == "" {
		variant = VariantOps
	}

	cfg, err := ForVariant(variant)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration before any device work starts
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return device.NewError(device.KindInvalidConfig, "validate config", fmt.Errorf(format, args...))
	}
	if c.Size < 1 {
		return invalid("vector size must be at least 1, got %d", c.Size)
	}
	if c.WorkGroupSize < 0 {
		return invalid("work group size must not be negative, got %d", c.WorkGroupSize)
	}
	// The padded index space must fit the kernels' int index
	maxSize := int64(math.MaxInt32)
	if c.WorkGroupSize > 0 {
		maxSize -= int64(c.WorkGroupSize) - 1
	}
	if int64(c.Size) > maxSize {
		return invalid("vector size %d with work group size %d overflows a 32-bit kernel index (max %d)",
			c.Size, c.WorkGroupSize, maxSize)
	}
	if c.KernelName == "" {
		return invalid("kernel name is empty")
	}
	switch c.Backend {
	case device.BackendOpenCL, device.BackendOCCA, device.BackendAuto:
	default:
		return invalid("unknown backend %q", c.Backend)
	}
	if c.KernelFile == "" && c.Backend != device.BackendOCCA {
		return invalid("kernel file is empty")
	}
	if c.OKLKernelFile == "" && c.Backend != device.BackendOpenCL {
		return invalid("OKL kernel file is empty")
	}
	return nil
}

// SourceFor returns the kernel file to build for a device backend
func (c *Config) SourceFor(backend string) string {
	if backend == device.BackendOCCA {
		return c.OKLKernelFile
	}
	return c.KernelFile
}
