package device

import (
	"fmt"
	"unsafe"
)

// hostSlice returns the base pointer and byte length of a supported host slice
func hostSlice(v interface{}) (unsafe.Pointer, int64, error) {
	switch data := v.(type) {
	case []int32:
		if len(data) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&data[0]), int64(len(data) * 4), nil
	case []int64:
		if len(data) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&data[0]), int64(len(data) * 8), nil
	case []float32:
		if len(data) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&data[0]), int64(len(data) * 4), nil
	case []float64:
		if len(data) == 0 {
			return nil, 0, nil
		}
		return unsafe.Pointer(&data[0]), int64(len(data) * 8), nil
	default:
		return nil, 0, fmt.Errorf("unsupported host type for copy: %T", v)
	}
}

// checkTransfer validates a host slice against a device buffer of the given size
func checkTransfer(op string, v interface{}, bytes int64) (unsafe.Pointer, error) {
	ptr, n, err := hostSlice(v)
	if err != nil {
		return nil, NewError(KindBufferTransfer, op, err)
	}
	if n != bytes {
		return nil, NewError(KindBufferTransfer, op,
			fmt.Errorf("host data is %d bytes, device buffer is %d bytes", n, bytes))
	}
	return ptr, nil
}
