package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/pipeline"
	"github.com/notargets/vecadd/report"
	"github.com/notargets/vecadd/runner/builder"
)

var (
	configFile string
	variant    string
	backend    string
	occaModes  []string
	kernelFile string
	seed       int64
	randomSeed bool
	printVecs  bool
	noPrint    bool
	verify     bool
	groupSize  int
	repeat     int
	language   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// newRootCmd registers every command and resets the flag variables to their
// defaults
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vecadd [size]",
		Short:         "add two integer vectors on a GPU, falling back to the CPU",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runVecAdd,
	}
	addRunFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", config.VariantOps, "program variant (ops or add)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "device backend (opencl, occa or auto)")
	rootCmd.PersistentFlags().StringSliceVar(&occaModes, "occa-modes", nil, "OCCA modes to try in order")

	benchCmd := &cobra.Command{
		Use:   "bench [size]",
		Short: "launch the bound kernel repeatedly and summarise the timings",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchVecAdd,
	}
	addRunFlags(benchCmd)
	benchCmd.Flags().IntVar(&repeat, "repeat", 10, "number of kernel launches")

	genCmd := &cobra.Command{
		Use:   "gen-kernel",
		Short: "print kernel source matching the variant's argument list",
		Args:  cobra.NoArgs,
		RunE:  genKernel,
	}
	genCmd.Flags().StringVar(&language, "lang", "opencl", "kernel language (opencl or okl)")

	rootCmd.AddCommand(benchCmd, genCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&kernelFile, "kernel", "", "kernel source file")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed for the host vectors")
	cmd.Flags().BoolVar(&randomSeed, "random-seed", false, "seed the host vectors from the clock")
	cmd.Flags().BoolVar(&printVecs, "print", true, "print the vectors")
	cmd.Flags().BoolVar(&noPrint, "no-print", false, "do not print the vectors")
	cmd.Flags().BoolVar(&verify, "verify", false, "check every output element on the host")
	cmd.Flags().IntVar(&groupSize, "work-group", 0, "fixed work-group size, 0 lets the runtime choose")
}

// loadConfig starts from the variant preset, overlays the config file and
// applies the flags the user set. A file naming a different variant than an
// explicit --variant is an error.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile, variant)
		if err == nil && cmd.Flags().Changed("variant") && cfg.Variant != variant {
			err = fmt.Errorf("--variant %s conflicts with %s in %s", variant, cfg.Variant, configFile)
		}
	} else {
		cfg, err = config.ForVariant(variant)
	}
	if err != nil {
		return nil, err
	}

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, device.NewError(device.KindInvalidConfig, "parse size",
				fmt.Errorf("invalid vector size %q", args[0]))
		}
		cfg.Size = n
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("occa-modes") {
		cfg.OCCAModes = occaModes
	}
	if flags.Changed("kernel") {
		if strings.HasSuffix(kernelFile, ".okl") {
			cfg.OKLKernelFile = kernelFile
		} else {
			cfg.KernelFile = kernelFile
		}
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
		cfg.RandomSeed = false
	}
	if flags.Changed("random-seed") {
		cfg.RandomSeed = randomSeed
	}
	if flags.Changed("print") {
		cfg.Print = printVecs
	}
	if noPrint {
		cfg.Print = false
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}
	if flags.Changed("work-group") {
		cfg.WorkGroupSize = groupSize
	}
	return cfg, cfg.Validate()
}

func runVecAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	_, err = pipeline.Run(cfg, pipeline.Options{Stdout: os.Stdout, Stderr: os.Stderr})
	return err
}

func benchVecAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	res, err := pipeline.Bench(cfg, repeat, pipeline.Options{Stdout: os.Stdout, Stderr: os.Stderr})
	if err != nil {
		return err
	}

	fmt.Println(report.Header(fmt.Sprintf("%s variant, N = %d, %s", cfg.Variant, cfg.Size, res.Device)))
	for i, t := range report.Milliseconds(res.Launches) {
		fmt.Printf("launch %3d: %f ms\n", i, t)
	}
	fmt.Print(report.Summarize(res.Launches).Format())
	fmt.Println(report.Plot(res.Launches, "kernel launch time (ms)"))
	return nil
}

func genKernel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	var lang builder.Language
	switch strings.ToLower(language) {
	case "opencl", "cl":
		lang = builder.OpenCLC
	case "okl", "occa":
		lang = builder.OKL
	default:
		return device.NewError(device.KindInvalidConfig, "gen-kernel",
			fmt.Errorf("unknown kernel language %q", language))
	}
	src, err := pipeline.GenerateKernel(cfg, lang)
	if err != nil {
		return err
	}
	fmt.Print(src)
	return nil
}

func reportError(err error) {
	if device.IsKind(err, device.KindProgramBuild) {
		fmt.Fprintf(os.Stderr, "Program Build Error (%s):\n%s\n", device.KindOf(err), device.BuildLog(err))
	}
	fmt.Fprintf(os.Stderr, "vecadd: %v\n", err)
}
