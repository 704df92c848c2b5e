// Package report summarises kernel launch timings for the bench command.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Summary holds launch time statistics in milliseconds
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Median float64
}

// Milliseconds converts durations to fractional milliseconds
func Milliseconds(times []time.Duration) []float64 {
	ms := make([]float64, len(times))
	for i, t := range times {
		ms[i] = float64(t) / float64(time.Millisecond)
	}
	return ms
}

// Summarize computes statistics over launch times
func Summarize(times []time.Duration) Summary {
	if len(times) == 0 {
		return Summary{}
	}
	ms := Milliseconds(times)

	s := Summary{
		Count: len(ms),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(ms, nil)
	if len(ms) == 1 {
		s.StdDev = 0
	}
	for _, v := range ms {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}

	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Plot draws launch times as an ASCII line graph. A single sample is
// duplicated so the graph has a line to draw.
func Plot(times []time.Duration, caption string) string {
	ms := Milliseconds(times)
	if len(ms) == 0 {
		return ""
	}
	if len(ms) == 1 {
		ms = append(ms, ms[0])
	}
	return asciigraph.Plot(ms,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// Header renders a section title
func Header(title string) string {
	return headerStyle.Render(strings.ToUpper(title))
}

// Format renders the summary as labelled lines
func (s Summary) Format() string {
	var sb strings.Builder
	line := func(label string, v float64) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", label)))
		sb.WriteString(fmt.Sprintf(" %f ms\n", v))
	}
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", "launches")))
	sb.WriteString(fmt.Sprintf(" %d\n", s.Count))
	line("mean", s.Mean)
	line("stddev", s.StdDev)
	line("median", s.Median)
	line("min", s.Min)
	line("max", s.Max)
	return sb.String()
}
