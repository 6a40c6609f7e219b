package mediasource

import (
	"context"
	"errors"

	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/prop"
)

// MediaDeviceType enumerates type of media device.
type MediaDeviceType int

// MediaDeviceType definitions.
const (
	VideoInput MediaDeviceType = iota + 1
	AudioInput
	AudioOutput
)

func (m MediaDeviceType) String() string {
	switch m {
	case VideoInput:
		return "videoinput"
	case AudioInput:
		return "audioinput"
	case AudioOutput:
		return "audiooutput"
	}
	return "unknown"
}

// Facing modes a camera can report.
const (
	FacingModeEnvironment = "environment"
	FacingModeUser        = "user"
)

var errNoCapabilities = errors.New("device does not report capabilities")

// MediaDeviceInfo represents https://w3c.github.io/mediacapture-main/#dom-mediadeviceinfo
type MediaDeviceInfo struct {
	DeviceID   string
	Kind       MediaDeviceType
	Label      string
	DeviceType driver.DeviceType
	// CapabilitiesFunc backs Capabilities. Platforms set it while enumerating.
	CapabilitiesFunc func(ctx context.Context) (MediaTrackCapabilities, error)
}

// Capabilities queries what the device reports it supports.
func (m MediaDeviceInfo) Capabilities(ctx context.Context) (MediaTrackCapabilities, error) {
	if m.CapabilitiesFunc == nil {
		return MediaTrackCapabilities{}, errNoCapabilities
	}
	return m.CapabilitiesFunc(ctx)
}

// MediaTrackCapabilities represents https://w3c.github.io/mediacapture-main/#dom-mediatrackcapabilities
// A nil range means the device doesn't report it.
type MediaTrackCapabilities struct {
	DeviceID   string
	FacingMode []string
	Width      *prop.IntRange
	Height     *prop.IntRange
	FrameRate  *prop.FloatRange
}

// HasFacingMode reports whether mode is one of the reported facing modes.
func (c MediaTrackCapabilities) HasFacingMode(mode string) bool {
	for _, m := range c.FacingMode {
		if m == mode {
			return true
		}
	}
	return false
}

func capabilitiesFromProperties(id string, facingMode []string, props []prop.Media) MediaTrackCapabilities {
	caps := MediaTrackCapabilities{
		DeviceID:   id,
		FacingMode: append([]string(nil), facingMode...),
	}
	for _, p := range props {
		if p.Width > 0 {
			caps.Width = widen(caps.Width, p.Width)
		}
		if p.Height > 0 {
			caps.Height = widen(caps.Height, p.Height)
		}
		if p.FrameRate > 0 {
			if caps.FrameRate == nil {
				caps.FrameRate = &prop.FloatRange{Min: p.FrameRate, Max: p.FrameRate}
			} else if p.FrameRate < caps.FrameRate.Min {
				caps.FrameRate.Min = p.FrameRate
			} else if p.FrameRate > caps.FrameRate.Max {
				caps.FrameRate.Max = p.FrameRate
			}
		}
	}
	return caps
}

func widen(r *prop.IntRange, v int) *prop.IntRange {
	if r == nil {
		return &prop.IntRange{Min: v, Max: v}
	}
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}
