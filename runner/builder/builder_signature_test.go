package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opsParams() []ParamSpec {
	v := []int32{0}
	return []ParamSpec{
		Scalar("n").Bind(int32(1)).Spec,
		InOut("v1").Bind(v).CopyTo().Spec,
		InOut("v2").Bind(v).CopyTo().Spec,
		InOut("v_out").Bind(v).CopyBack().Spec,
	}
}

func addParams() []ParamSpec {
	v := []int32{0}
	return []ParamSpec{
		Input("a").Bind(v).CopyTo().Spec,
		Input("b").Bind(v).CopyTo().Spec,
		Output("c").Bind(v).CopyBack().Spec,
	}
}

func TestGenerateKernelSignature(t *testing.T) {
	sig := GenerateKernelSignature(OpenCLC, addParams())
	assert.Equal(t, "__global const int *a,\n\t__global const int *b,\n\t__global int *c", sig)

	sig = GenerateKernelSignature(OKL, opsParams())
	assert.Equal(t, "const int n,\n\tint *v1,\n\tint *v2,\n\tint *v_out", sig)
}

func TestGenerateVectorAddKernel_OpenCL(t *testing.T) {
	src, err := GenerateVectorAddKernel(OpenCLC, "vector_add_ocl", opsParams())
	require.NoError(t, err)
	assert.Contains(t, src, "__kernel void vector_add_ocl(")
	assert.Contains(t, src, "get_global_id(0)")
	assert.Contains(t, src, "if (i < n)")
	assert.Contains(t, src, "v_out[i] = v1[i] + v2[i];")

	src, err = GenerateVectorAddKernel(OpenCLC, "vector_add", addParams())
	require.NoError(t, err)
	assert.Contains(t, src, "if (i < VECTOR_SIZE)")
	assert.Contains(t, src, "c[i] = a[i] + b[i];")
}

func TestGenerateVectorAddKernel_OKL(t *testing.T) {
	src, err := GenerateVectorAddKernel(OKL, "vector_add", addParams())
	require.NoError(t, err)
	assert.Contains(t, src, "@kernel void vector_add(")
	assert.Contains(t, src, "@tile(WORK_GROUP_SIZE, @outer, @inner)")
	assert.Contains(t, src, "i < VECTOR_SIZE")
}

func TestGenerateVectorAddKernel_MissingOutput(t *testing.T) {
	params := addParams()[:2]
	_, err := GenerateVectorAddKernel(OpenCLC, "vector_add", params)
	assert.Error(t, err)
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, ".cl", OpenCLC.Extension())
	assert.Equal(t, ".okl", OKL.Extension())
	assert.Equal(t, "okl", OKL.String())
}
