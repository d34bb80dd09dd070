package inputs

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports a bad device, size or count.
var ErrInvalidArgument = errors.New("invalid argument")

// Device is where native tensors are placed.
type Device int

const (
	CPU Device = iota
	CUDA
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return fmt.Sprintf("device(%d)", int(d))
	}
}

// Valid reports whether d is a known device.
func (d Device) Valid() bool {
	return d == CPU || d == CUDA
}

// ParseDevice accepts exactly "cpu" or "cuda".
func ParseDevice(name string) (Device, error) {
	switch name {
	case "cpu":
		return CPU, nil
	case "cuda":
		return CUDA, nil
	}
	return CPU, fmt.Errorf("device %q must be one of [cpu, cuda]: %w", name, ErrInvalidArgument)
}
