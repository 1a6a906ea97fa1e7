// Package render hands scene snapshots to the external ray-tracing engine and
// tracks the kernel state around each call.
package render

import "fmt"

// KernelState is the tri-state status of the render kernel.
type KernelState int

const (
	Initial KernelState = iota
	Rendering
	Done
)

func (s KernelState) String() string {
	switch s {
	case Initial:
		return "INITIAL"
	case Rendering:
		return "RENDERING"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("KernelState(%d)", int(s))
	}
}

func (s KernelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
