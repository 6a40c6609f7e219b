package prop

import (
	"fmt"
	"strings"

	"github.com/pion/mediasource/pkg/frame"
)

// MediaConstraints represents set of media property constraints.
// Each field constrains property by min/ideal/max range, exact match, or one-of values.
type MediaConstraints struct {
	DeviceID StringConstraint
	VideoConstraints
}

// String prints the set constraints, skipping the unset ones.
func (m MediaConstraints) String() string {
	var fields []string
	add := func(name string, c interface{}) {
		if c == nil {
			return
		}
		fields = append(fields, fmt.Sprintf("%s: %v", name, c))
	}
	if m.DeviceID != nil {
		add("DeviceID", m.DeviceID)
	}
	if m.FacingMode != nil {
		add("FacingMode", m.FacingMode)
	}
	if m.Width != nil {
		add("Width", m.Width)
	}
	if m.Height != nil {
		add("Height", m.Height)
	}
	if m.FrameRate != nil {
		add("FrameRate", m.FrameRate)
	}
	if m.FrameFormat != nil {
		add("FrameFormat", m.FrameFormat)
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

// Media stores single set of media properties.
type Media struct {
	DeviceID string
	Video
}

// Merge merges all the field values from o to p, except zero values.
func (p *Media) Merge(o Media) {
	if o.DeviceID != "" {
		p.DeviceID = o.DeviceID
	}
	if o.Width != 0 {
		p.Width = o.Width
	}
	if o.Height != 0 {
		p.Height = o.Height
	}
	if o.FrameRate != 0 {
		p.FrameRate = o.FrameRate
	}
	if o.FrameFormat != "" {
		p.FrameFormat = o.FrameFormat
	}
	if o.FacingMode != "" {
		p.FacingMode = o.FacingMode
	}
}

// FitnessDistance calculates fitness of media property and media constraints.
// If no media satisfies the constraints, second return value will be false.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (p *MediaConstraints) FitnessDistance(o Media) (float64, bool) {
	cmps := comparisons{}
	cmps.add(p.DeviceID, o.DeviceID)
	cmps.add(p.FacingMode, o.FacingMode)
	cmps.add(p.Width, o.Width)
	cmps.add(p.Height, o.Height)
	cmps.add(p.FrameRate, o.FrameRate)
	cmps.add(p.FrameFormat, o.FrameFormat)
	return cmps.fitnessDistance()
}

// Unsatisfied returns the name of the first constraint that o can't satisfy,
// or an empty string.
func (p *MediaConstraints) Unsatisfied(o Media) string {
	checks := []struct {
		name string
		c    interface{}
		v    interface{}
	}{
		{"deviceId", p.DeviceID, o.DeviceID},
		{"facingMode", p.FacingMode, o.FacingMode},
		{"width", p.Width, o.Width},
		{"height", p.Height, o.Height},
		{"frameRate", p.FrameRate, o.FrameRate},
		{"frameFormat", p.FrameFormat, o.FrameFormat},
	}
	for _, check := range checks {
		cmps := comparisons{}
		cmps.add(check.c, check.v)
		if _, ok := cmps.fitnessDistance(); !ok {
			return check.name
		}
	}
	return ""
}

type comparisons []struct {
	desired, actual interface{}
}

func (c *comparisons) add(desired, actual interface{}) {
	if desired != nil {
		*c = append(*c,
			struct{ desired, actual interface{} }{
				desired, actual,
			},
		)
	}
}

// fitnessDistance is an implementation for https://w3c.github.io/mediacapture-main/#dfn-fitness-distance
func (c *comparisons) fitnessDistance() (float64, bool) {
	var dist float64
	for _, field := range *c {
		var d float64
		var ok bool
		switch desired := field.desired.(type) {
		case IntConstraint:
			if actual, typeOK := field.actual.(int); typeOK {
				d, ok = desired.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case StringConstraint:
			if actual, typeOK := field.actual.(string); typeOK {
				d, ok = desired.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case FloatConstraint:
			if actual, typeOK := field.actual.(float32); typeOK {
				d, ok = desired.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		case FrameFormatConstraint:
			if actual, typeOK := field.actual.(frame.Format); typeOK {
				d, ok = desired.Compare(actual)
			} else {
				panic("wrong type of actual value")
			}
		default:
			panic("unsupported constraint type")
		}
		dist += d
		if !ok {
			return 0, false
		}
	}
	return dist, true
}

// VideoConstraints represents a video's constraints
type VideoConstraints struct {
	Width, Height IntConstraint
	FrameRate     FloatConstraint
	FrameFormat   FrameFormatConstraint
	FacingMode    StringConstraint
}

// Video represents a video's properties
type Video struct {
	Width, Height int
	FrameRate     float32
	FrameFormat   frame.Format
	// FacingMode is the camera orientation, "environment" or "user".
	FacingMode string
}

// IntRange is a closed range of integer values a device supports.
type IntRange struct {
	Min, Max int
}

// FloatRange is a closed range of float values a device supports.
type FloatRange struct {
	Min, Max float32
}
