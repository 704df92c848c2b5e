package builder

import (
	"fmt"
	"os"
	"strings"

	"github.com/notargets/vecadd/device"
)

// DataType represents the element type of a kernel parameter
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// Size returns the size in bytes of one element
func (dt DataType) Size() int64 {
	switch dt {
	case Float32, INT32:
		return 4
	case Float64, INT64:
		return 8
	default:
		return 8
	}
}

// CType returns the C type name used in kernel source
func (dt DataType) CType() string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case INT32:
		return "int"
	case INT64:
		return "long"
	default:
		return "int"
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case INT32:
		return "int32"
	case INT64:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// DefaultWorkGroupSize is used for OKL tiling when no group size is configured
const DefaultWorkGroupSize = 64

// Source is kernel source text read from a file
type Source struct {
	Path string
	Text string
}

// LoadSource reads the whole kernel source file
func LoadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, device.NewError(device.KindSourceNotFound,
			"read kernel source "+path, err)
	}
	return Source{Path: path, Text: string(data)}, nil
}

// Preamble generates the defines every kernel may use to guard its index
// space: VECTOR_SIZE (the logical length N) and WORK_GROUP_SIZE.
func Preamble(n, group int) string {
	if group <= 0 {
		group = DefaultWorkGroupSize
	}
	var sb strings.Builder
	sb.WriteString("#ifndef VECTOR_SIZE\n")
	sb.WriteString(fmt.Sprintf("#define VECTOR_SIZE %d\n", n))
	sb.WriteString("#endif\n")
	sb.WriteString("#ifndef WORK_GROUP_SIZE\n")
	sb.WriteString(fmt.Sprintf("#define WORK_GROUP_SIZE %d\n", group))
	sb.WriteString("#endif\n\n")
	return sb.String()
}

// WithPreamble returns the source text prefixed by Preamble(n, group)
func (s Source) WithPreamble(n, group int) string {
	return Preamble(n, group) + s.Text
}

// LaunchDims is a one dimensional index space. Global is N rounded up to a
// multiple of Local; kernels must guard indices >= N.
type LaunchDims struct {
	N      int
	Global int
	Local  int
}

// NewLaunchDims pads the index space for a fixed work-group size.
// group <= 0 leaves the group size to the runtime and Global == N.
func NewLaunchDims(n, group int) LaunchDims {
	if group <= 0 {
		return LaunchDims{N: n, Global: n}
	}
	global := ((n + group - 1) / group) * group
	return LaunchDims{N: n, Global: global, Local: group}
}

// Padded reports whether the index space contains work-items past N
func (ld LaunchDims) Padded() bool {
	return ld.Global > ld.N
}

// Groups returns the number of work-groups, or 0 when the runtime chooses
func (ld LaunchDims) Groups() int {
	if ld.Local <= 0 {
		return 0
	}
	return ld.Global / ld.Local
}
