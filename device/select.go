package device

import (
	"fmt"
	"io"
)

// Backend names accepted by Select
const (
	BackendOpenCL = "opencl"
	BackendOCCA   = "occa"
	BackendAuto   = "auto"
)

// Select opens a device on the named backend. "auto" tries OpenCL and falls
// back to OCCA only when no OpenCL platform is installed.
func Select(backend string, occaModes []string, log io.Writer) (Device, error) {
	switch backend {
	case BackendOpenCL, "":
		return SelectOpenCL(log)

	case BackendOCCA:
		modes, err := ParseOCCAModes(occaModes)
		if err != nil {
			return nil, err
		}
		return SelectOCCA(modes, log)

	case BackendAuto:
		dev, err := SelectOpenCL(log)
		if err == nil {
			return dev, nil
		}
		if !IsKind(err, KindPlatformNotFound) {
			return nil, err
		}
		modes, perr := ParseOCCAModes(occaModes)
		if perr != nil {
			return nil, perr
		}
		return SelectOCCA(modes, log)

	default:
		return nil, NewError(KindInvalidConfig, "select device",
			fmt.Errorf("unknown backend %q", backend))
	}
}
