package mediasource

import (
	"github.com/pion/mediasource/pkg/prop"
)

// MediaStreamConstraints describes the requested stream. A nil Video means
// no video is requested.
type MediaStreamConstraints struct {
	Video *MediaTrackConstraints
}

// MediaTrackConstraints represents https://w3c.github.io/mediacapture-main/#dom-mediatrackconstraints
type MediaTrackConstraints struct {
	prop.MediaConstraints
}

func (c MediaStreamConstraints) String() string {
	if c.Video == nil {
		return "{}"
	}
	return "{video: " + c.Video.MediaConstraints.String() + "}"
}

// DefaultConstraints prefers the rear-facing camera.
func DefaultConstraints() MediaStreamConstraints {
	return MediaStreamConstraints{
		Video: &MediaTrackConstraints{
			MediaConstraints: prop.MediaConstraints{
				VideoConstraints: prop.VideoConstraints{
					FacingMode: prop.String(FacingModeEnvironment),
				},
			},
		},
	}
}

// deviceConstraints requests exactly the device id and nothing else.
func deviceConstraints(id string) MediaStreamConstraints {
	return MediaStreamConstraints{
		Video: &MediaTrackConstraints{
			MediaConstraints: prop.MediaConstraints{
				DeviceID: prop.StringExact(id),
			},
		},
	}
}
