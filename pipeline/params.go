package pipeline

import (
	"github.com/notargets/vecadd/config"
	"github.com/notargets/vecadd/runner/builder"
)

// VectorParams declares the kernel arguments of a variant in positional
// order. The ops variant passes N first and allocates every buffer
// read-write; the add variant uses read-only inputs and a write-only output.
func VectorParams(cfg *config.Config, a, b, out []int32) []*builder.ParamBuilder {
	var params []*builder.ParamBuilder
	if cfg.SizeArg {
		params = append(params, builder.Scalar("n").Bind(int32(len(out))))
	}
	if cfg.ReadWrite {
		params = append(params,
			builder.InOut("v1").Bind(a).CopyTo(),
			builder.InOut("v2").Bind(b).CopyTo(),
			builder.InOut("v_out").Bind(out).CopyBack(),
		)
	} else {
		params = append(params,
			builder.Input("a").Bind(a).CopyTo(),
			builder.Input("b").Bind(b).CopyTo(),
			builder.Output("c").Bind(out).CopyBack(),
		)
	}
	return params
}

// GenerateKernel produces kernel source for a variant in the given dialect,
// matching the argument order of VectorParams
func GenerateKernel(cfg *config.Config, lang builder.Language) (string, error) {
	one := []int32{0}
	params := VectorParams(cfg, one, one, []int32{0})
	specs := make([]builder.ParamSpec, len(params))
	for i, p := range params {
		specs[i] = p.Spec
	}
	return builder.GenerateVectorAddKernel(lang, cfg.KernelName, specs)
}
