package device

import (
	"golang.org/x/sys/cpu"
)

// HostFeatures lists the SIMD extensions of the host CPU. CPU-class devices
// run kernels on the host, so these bound what the kernel compiler can use.
func HostFeatures() []string {
	var feats []string
	add := func(ok bool, name string) {
		if ok {
			feats = append(feats, name)
		}
	}

	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")

	add(cpu.ARM64.HasASIMD, "neon")
	add(cpu.ARM64.HasSVE, "sve")

	return feats
}
