package utils

import (
	"fmt"

	"github.com/notargets/gocca"
	"github.com/notargets/vecadd/device"
)

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *device.OCCADevice {
	// Try OpenMP, then CUDA, then fall back to Serial
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	for _, props := range backends {
		dev, err := gocca.NewDevice(props)
		if err == nil {
			fmt.Printf("Created %s Device\n", dev.Mode())
			return device.WrapOCCA(dev)
		}
	}

	// Should not reach here
	panic("Failed to create any Device")
}
