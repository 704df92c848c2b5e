package builder

import (
	"fmt"
	"strings"
)

// Language selects the kernel dialect to generate
type Language int

const (
	OpenCLC Language = iota
	OKL
)

func (l Language) String() string {
	if l == OKL {
		return "okl"
	}
	return "opencl"
}

// Extension returns the conventional file extension for the dialect
func (l Language) Extension() string {
	if l == OKL {
		return ".okl"
	}
	return ".cl"
}

// GenerateKernelSignature generates the parameter list of a kernel taking
// params in declaration order
func GenerateKernelSignature(lang Language, params []ParamSpec) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		constStr := ""
		if p.IsConst() {
			constStr = "const "
		}
		if p.Direction == DirectionScalar {
			parts = append(parts, fmt.Sprintf("const %s %s", p.DataType.CType(), p.Name))
			continue
		}
		if lang == OpenCLC {
			parts = append(parts, fmt.Sprintf("__global %s%s *%s", constStr, p.DataType.CType(), p.Name))
		} else {
			parts = append(parts, fmt.Sprintf("%s%s *%s", constStr, p.DataType.CType(), p.Name))
		}
	}
	return strings.Join(parts, ",\n\t")
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func GenerateKernelDeclaration(lang Language, kernelName string, params []ParamSpec) string {
	qualifier := "__kernel"
	if lang == OKL {
		qualifier = "@kernel"
	}
	return fmt.Sprintf("%s void %s(\n\t%s\n)", qualifier, kernelName,
		GenerateKernelSignature(lang, params))
}

// GenerateVectorAddKernel generates a kernel writing out[i] = a[i] + b[i],
// where a and b are the first two inputs and out is the first writable array.
// The bound is the first integer scalar parameter, or VECTOR_SIZE when the
// kernel takes none.
func GenerateVectorAddKernel(lang Language, kernelName string, params []ParamSpec) (string, error) {
	var inputs []string
	var output, bound string
	for _, p := range params {
		switch {
		case p.Direction == DirectionScalar:
			if bound == "" && (p.DataType == INT32 || p.DataType == INT64) {
				bound = p.Name
			}
		case p.IsConst() || (p.Direction == DirectionInOut && len(inputs) < 2):
			inputs = append(inputs, p.Name)
		case output == "":
			output = p.Name
		}
	}
	if len(inputs) < 2 || output == "" {
		return "", fmt.Errorf("vector add needs two inputs and one output, got inputs %v output %q",
			inputs, output)
	}
	if bound == "" {
		bound = "VECTOR_SIZE"
	}

	var sb strings.Builder
	sb.WriteString(GenerateKernelDeclaration(lang, kernelName, params))
	sb.WriteString(" {\n")
	if lang == OKL {
		sb.WriteString(fmt.Sprintf("\tfor (int i = 0; i < %s; ++i; @tile(WORK_GROUP_SIZE, @outer, @inner)) {\n", bound))
		sb.WriteString(fmt.Sprintf("\t\t%s[i] = %s[i] + %s[i];\n", output, inputs[0], inputs[1]))
		sb.WriteString("\t}\n")
	} else {
		sb.WriteString("\tconst int i = get_global_id(0);\n")
		sb.WriteString(fmt.Sprintf("\tif (i < %s) {\n", bound))
		sb.WriteString(fmt.Sprintf("\t\t%s[i] = %s[i] + %s[i];\n", output, inputs[0], inputs[1]))
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	return sb.String(), nil
}
