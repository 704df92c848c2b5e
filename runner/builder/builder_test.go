package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vecadd/device"
)

func TestNewLaunchDims(t *testing.T) {
	tests := []struct {
		name          string
		n, group      int
		global, local int
		groups        int
		padded        bool
	}{
		{"SingleElement", 1, 64, 64, 64, 1, true},
		{"AddVariant", 100000, 64, 100032, 64, 1563, true},
		{"ExactMultiple", 128, 64, 128, 64, 2, false},
		{"RuntimeChooses", 100000000, 0, 100000000, 0, 0, false},
		{"NegativeGroup", 15, -1, 15, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ld := NewLaunchDims(tt.n, tt.group)
			assert.Equal(t, tt.n, ld.N)
			assert.Equal(t, tt.global, ld.Global)
			assert.Equal(t, tt.local, ld.Local)
			assert.Equal(t, tt.groups, ld.Groups())
			assert.Equal(t, tt.padded, ld.Padded())
			assert.GreaterOrEqual(t, ld.Global, ld.N)
			if ld.Local > 0 {
				assert.Zero(t, ld.Global%ld.Local)
				assert.Less(t, ld.Global-ld.N, ld.Local)
			}
		})
	}
}

func TestPreamble(t *testing.T) {
	p := Preamble(100000, 64)
	assert.Contains(t, p, "#define VECTOR_SIZE 100000\n")
	assert.Contains(t, p, "#define WORK_GROUP_SIZE 64\n")
	assert.Contains(t, p, "#ifndef VECTOR_SIZE\n")

	// OKL tiling needs a positive tile even when the runtime picks the group
	assert.Contains(t, Preamble(10, 0), "#define WORK_GROUP_SIZE 64\n")

	src := Source{Path: "k.cl", Text: "__kernel void k() {}\n"}
	full := src.WithPreamble(10, 32)
	assert.True(t, strings.HasPrefix(full, "#ifndef VECTOR_SIZE"))
	assert.True(t, strings.HasSuffix(full, src.Text))
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vector_add.cl")
	text := "__kernel void vector_add() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	src, err := LoadSource(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
	assert.Equal(t, text, src.Text)

	_, err = LoadSource(filepath.Join(dir, "missing.cl"))
	require.Error(t, err)
	assert.True(t, device.IsKind(err, device.KindSourceNotFound))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataType(t *testing.T) {
	assert.Equal(t, int64(4), INT32.Size())
	assert.Equal(t, int64(8), INT64.Size())
	assert.Equal(t, int64(4), Float32.Size())
	assert.Equal(t, int64(8), Float64.Size())
	assert.Equal(t, "int", INT32.CType())
	assert.Equal(t, "double", Float64.CType())
	assert.Equal(t, "int32", INT32.String())
}
