package runner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vecadd/runner/builder"
	"github.com/notargets/vecadd/utils"
)

// TestRunner_OCCAVectorAdd runs generated kernels for both argument layouts
// on a real OCCA device
func TestRunner_OCCAVectorAdd(t *testing.T) {
	for _, n := range []int{1, 15, 16, 1000} {
		for _, sizeArg := range []bool{false, true} {
			n, sizeArg := n, sizeArg
			t.Run(fmt.Sprintf("N=%d/sizeArg=%v", n, sizeArg), func(t *testing.T) {
				device := utils.CreateTestDevice()
				defer device.Free()

				runner := NewRunner(device)
				defer runner.Free()

				rng := utils.NewRand(7, false)
				a := utils.NewHostVector(n, rng)
				b := utils.NewHostVector(n, rng)
				out := make([]int32, n)

				var params []*builder.ParamBuilder
				if sizeArg {
					params = append(params,
						builder.Scalar("n").Bind(int32(n)),
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
				specs := make([]builder.ParamSpec, len(params))
				for i, p := range params {
					specs[i] = p.Spec
				}
				src, err := builder.GenerateVectorAddKernel(builder.OKL, "vector_add", specs)
				require.NoError(t, err)

				source := builder.Source{Text: src}
				require.NoError(t, runner.BuildProgram(source.WithPreamble(n, 64), "vector_add"))
				require.NoError(t, runner.AllocateBuffers(params...))
				require.NoError(t, runner.CopyInputs())
				require.NoError(t, runner.BindArguments())
				_, err = runner.Launch(builder.NewLaunchDims(n, 64))
				require.NoError(t, err)
				require.NoError(t, runner.ReadResults())

				for i := range out {
					assert.Equal(t, a[i]+b[i], out[i], "element %d", i)
				}
			})
		}
	}
}
