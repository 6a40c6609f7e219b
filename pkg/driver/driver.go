package driver

import (
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

// OpenCloser is an interface with Open and Close methods
type OpenCloser interface {
	Open() error
	Close() error
}

// Infoer is an interface with Info method
type Infoer interface {
	Info() Info
}

// Info is a generic representation of a device's information. Besides
// Label and DeviceType, it carries what the device reports about itself and
// can't be derived from its supported properties.
type Info struct {
	Label      string
	DeviceType DeviceType
	Priority   Priority
	// FacingMode lists the orientations the device reports, e.g. "environment".
	FacingMode []string
}

// Priority represents device selection priority level
type Priority float32

const (
	// PriorityHigh is a value for system default devices
	PriorityHigh Priority = 0.1
	// PriorityNormal is a value for normal devices
	PriorityNormal Priority = 0.0
	// PriorityLow is a value for unrecommended devices
	PriorityLow Priority = -0.1
)

// VideoRecorder is an interface to encapsulate VideoRecord method
type VideoRecorder interface {
	VideoRecord(p prop.Media) (r video.Reader, err error)
}

// Adapter is a common interface that should be implemented by all drivers
type Adapter interface {
	OpenCloser
	Properties() []prop.Media
}

// Driver is an adapter that has been registered in the manager. The manager
// owns its ID and keeps track of its state.
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
}
