package builder

import (
	"fmt"
	"reflect"
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
	DirectionScalar
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	case DirectionInOut:
		return "inout"
	case DirectionScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ParamBuilder provides a fluent interface for building kernel parameters
type ParamBuilder struct {
	Spec ParamSpec
}

// ParamSpec holds the complete specification for a kernel parameter.
// Parameters are bound to kernel arguments in declaration order.
type ParamSpec struct {
	Name        string
	Direction   Direction
	HostBinding interface{}

	// Type and size (inferred from the binding)
	DataType DataType
	Size     int64

	// Data movement
	DoCopyTo   bool
	DoCopyBack bool
}

// Input creates a parameter specification for a read-only device array
func Input(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionInput,
		},
	}
}

// Output creates a parameter specification for a write-only device array
func Output(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionOutput,
		},
	}
}

// InOut creates a parameter specification for a read-write device array
func InOut(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionInOut,
		},
	}
}

// Scalar creates a parameter specification for a value passed by copy
func Scalar(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionScalar,
		},
	}
}

// Bind associates a host variable with this parameter
func (p *ParamBuilder) Bind(hostVar interface{}) *ParamBuilder {
	p.Spec.HostBinding = hostVar

	// Infer type and size if possible
	p.inferFromBinding()

	return p
}

// CopyTo sets host→device copy before kernel execution
func (p *ParamBuilder) CopyTo() *ParamBuilder {
	p.Spec.DoCopyTo = true
	return p
}

// CopyBack sets device→host copy after kernel execution
func (p *ParamBuilder) CopyBack() *ParamBuilder {
	p.Spec.DoCopyBack = true
	return p
}

// inferFromBinding extracts type and size information from the host binding
func (p *ParamBuilder) inferFromBinding() {
	if p.Spec.HostBinding == nil {
		return
	}

	v := reflect.ValueOf(p.Spec.HostBinding)
	t := v.Type()

	// Handle slices
	if t.Kind() == reflect.Slice {
		p.Spec.Size = int64(v.Len())

		switch t.Elem().Kind() {
		case reflect.Float32:
			p.Spec.DataType = Float32
		case reflect.Float64:
			p.Spec.DataType = Float64
		case reflect.Int32:
			p.Spec.DataType = INT32
		case reflect.Int64:
			p.Spec.DataType = INT64
		}
		return
	}

	// Handle scalars
	switch t.Kind() {
	case reflect.Float32:
		p.Spec.DataType = Float32
		p.Spec.Size = 1
	case reflect.Float64:
		p.Spec.DataType = Float64
		p.Spec.Size = 1
	case reflect.Int64:
		p.Spec.DataType = INT64
		p.Spec.Size = 1
	case reflect.Int32:
		p.Spec.DataType = INT32
		p.Spec.Size = 1
	}
}

// Validate checks if the parameter specification is complete and valid
func (p *ParamSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}

	if p.Direction == DirectionScalar {
		if p.HostBinding == nil {
			return fmt.Errorf("scalar %s needs a binding", p.Name)
		}
		if p.DataType == 0 {
			return fmt.Errorf("scalar %s has unsupported type %T", p.Name, p.HostBinding)
		}
		if p.DoCopyTo || p.DoCopyBack {
			return fmt.Errorf("scalar %s cannot have copy operations", p.Name)
		}
		return nil
	}

	if p.HostBinding == nil {
		return fmt.Errorf("array %s needs a host binding", p.Name)
	}
	if p.Size == 0 {
		return fmt.Errorf("array %s needs size", p.Name)
	}
	if p.DataType == 0 {
		return fmt.Errorf("array %s has unsupported element type %T", p.Name, p.HostBinding)
	}
	if p.Direction == DirectionOutput && p.DoCopyTo {
		return fmt.Errorf("write-only array %s cannot be copied to the device", p.Name)
	}
	if p.Direction == DirectionInput && p.DoCopyBack {
		return fmt.Errorf("read-only array %s cannot be copied back from the device", p.Name)
	}

	return nil
}

// IsConst returns whether this parameter should be const in the kernel signature
func (p *ParamSpec) IsConst() bool {
	switch p.Direction {
	case DirectionInput, DirectionScalar:
		return true
	default:
		return false
	}
}

// IsArray reports whether the parameter needs a device buffer
func (p *ParamSpec) IsArray() bool {
	return p.Direction != DirectionScalar
}

// Bytes returns the device buffer size: Size × element size
func (p *ParamSpec) Bytes() int64 {
	return p.Size * p.DataType.Size()
}

// NeedsCopyTo returns whether this parameter needs host→device copy
func (p *ParamSpec) NeedsCopyTo() bool {
	return p.DoCopyTo && p.HostBinding != nil
}

// NeedsCopyBack returns whether this parameter needs device→host copy
func (p *ParamSpec) NeedsCopyBack() bool {
	return p.DoCopyBack && p.HostBinding != nil
}
