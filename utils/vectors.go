package utils

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/notargets/vecadd/device"
)

const (
	// MaxValue bounds the generated vector values to [0, MaxValue)
	MaxValue = 100
	// previewEdge is the number of leading and trailing values shown for
	// vectors longer than previewLimit
	previewEdge  = 5
	previewLimit = 15
	separator    = "----------------------------"
)

// NewRand returns the generator for host vectors. randomSeed seeds from the
// clock instead of seed.
func NewRand(seed int64, randomSeed bool) *rand.Rand {
	if randomSeed {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NewHostVector allocates n values drawn uniformly from [0, MaxValue)
func NewHostVector(n int, rng *rand.Rand) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = rng.Int31n(MaxValue)
	}
	return v
}

// FormatVector renders v as the pipeline prints it: every value when there
// are at most 15, otherwise the first and last five around " ..... ",
// followed by a separator line
func FormatVector(v []int32) string {
	var sb strings.Builder
	if len(v) > previewLimit {
		for _, x := range v[:previewEdge] {
			fmt.Fprintf(&sb, "%d ", x)
		}
		sb.WriteString(" ..... ")
		for _, x := range v[len(v)-previewEdge:] {
			fmt.Fprintf(&sb, "%d ", x)
		}
	} else {
		for _, x := range v {
			fmt.Fprintf(&sb, "%d ", x)
		}
	}
	sb.WriteString("\n" + separator + "\n")
	return sb.String()
}

// PrintVector writes FormatVector(v) to w
func PrintVector(w io.Writer, v []int32) {
	io.WriteString(w, FormatVector(v))
}

// Mismatch is one output element that is not the sum of its inputs
type Mismatch struct {
	Index int
	Want  int32
	Got   int32
}

// VerifySum checks out[i] == a[i] + b[i] for every i and returns the first
// few mismatches with the total count
func VerifySum(a, b, out []int32, limit int) ([]Mismatch, int, error) {
	if len(a) != len(b) || len(a) != len(out) {
		return nil, 0, device.NewError(device.KindVerification, "verify sum",
			fmt.Errorf("length mismatch: %d, %d, %d", len(a), len(b), len(out)))
	}
	if limit < 1 {
		limit = 1
	}
	var found []Mismatch
	count := 0
	for i := range out {
		want := a[i] + b[i]
		if out[i] != want {
			count++
			if len(found) < limit {
				found = append(found, Mismatch{Index: i, Want: want, Got: out[i]})
			}
		}
	}
	if count > 0 {
		m := found[0]
		return found, count, device.NewError(device.KindVerification, "verify sum",
			fmt.Errorf("%d of %d elements wrong, first at %d: want %d, got %d",
				count, len(out), m.Index, m.Want, m.Got))
	}
	return nil, 0, nil
}
