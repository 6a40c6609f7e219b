package mediasource

import (
	"context"
	"math"

	"github.com/pion/logging"
	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

// MediaDevices is the platform capture capability a MediaSource consumes.
// Reference: https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices
type MediaDevices interface {
	EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error)
	GetUserMedia(ctx context.Context, constraints MediaStreamConstraints) (MediaStream, error)
}

// Supporter is implemented by platforms that can tell at runtime whether
// they are able to capture media at all.
type Supporter interface {
	Supported() bool
}

type mediaDevices struct {
	manager        *driver.Manager
	videoTransform video.TransformFunc
	logger         logging.LeveledLogger
}

// MediaDevicesOption is a type of MediaDevices functional option.
type MediaDevicesOption func(*mediaDevices)

// WithDriverManager makes the platform look up drivers in m instead of the
// process wide driver.GetManager().
func WithDriverManager(m *driver.Manager) MediaDevicesOption {
	return func(md *mediaDevices) {
		md.manager = m
	}
}

// WithVideoTransformers will be used to transform the video that's coming from the driver.
// So, basically it'll look like following: driver -> VideoTransform -> surface
func WithVideoTransformers(transformFuncs ...video.TransformFunc) MediaDevicesOption {
	return func(md *mediaDevices) {
		md.videoTransform = video.Merge(transformFuncs...)
	}
}

// WithMediaDevicesLoggerFactory replaces the logger factory of the platform.
func WithMediaDevicesLoggerFactory(f logging.LoggerFactory) MediaDevicesOption {
	return func(md *mediaDevices) {
		md.logger = f.NewLogger("mediasource/mediadevices")
	}
}

// NewMediaDevices creates the driver backed MediaDevices that provides access
// to the registered capture drivers.
func NewMediaDevices(opts ...MediaDevicesOption) MediaDevices {
	md := &mediaDevices{
		manager: driver.GetManager(),
		logger:  loggerFactory.NewLogger("mediasource/mediadevices"),
	}
	for _, o := range opts {
		o(md)
	}
	return md
}

// Supported implements Supporter. The driver backed platform always is.
func (m *mediaDevices) Supported() bool {
	return true
}

func videoFilter() driver.FilterFn {
	return driver.FilterAnd(
		driver.FilterVideoRecorder(),
		driver.FilterNot(driver.FilterDeviceType(driver.Screen)),
	)
}

// EnumerateDevices lists every registered camera in registration order.
func (m *mediaDevices) EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, abortError(err)
	}

	drivers := m.manager.Query(videoFilter())
	infos := make([]MediaDeviceInfo, 0, len(drivers))
	for _, d := range drivers {
		d := d
		driverInfo := d.Info()
		infos = append(infos, MediaDeviceInfo{
			DeviceID:   d.ID(),
			Kind:       VideoInput,
			Label:      driverInfo.Label,
			DeviceType: driverInfo.DeviceType,
			CapabilitiesFunc: func(ctx context.Context) (MediaTrackCapabilities, error) {
				if err := ctx.Err(); err != nil {
					return MediaTrackCapabilities{}, abortError(err)
				}
				props, err := queryDriverProperties(d)
				if err != nil {
					return MediaTrackCapabilities{}, err
				}
				return capabilitiesFromProperties(d.ID(), driverInfo.FacingMode, props), nil
			},
		})
	}
	return infos, nil
}

// queryDriverProperties opens d if needed to read its properties. A driver
// that was closed is closed again.
func queryDriverProperties(d driver.Driver) ([]prop.Media, error) {
	if d.Status() == driver.StateClosed {
		if err := d.Open(); err != nil {
			return nil, err
		}
		defer d.Close()
	}
	return d.Properties(), nil
}

// GetUserMedia prompts the user for permission to use a media input which produces a MediaStream
// with tracks containing the requested types of media.
// Reference: https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices/getUserMedia
func (m *mediaDevices) GetUserMedia(ctx context.Context, constraints MediaStreamConstraints) (MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, abortError(err)
	}
	if constraints.Video == nil {
		return nil, &MediaError{Name: TypeError, Message: "video must be requested"}
	}

	c := constraints.Video.MediaConstraints
	filter := videoFilter()
	if id, ok := c.DeviceID.(prop.StringExact); ok {
		filter = driver.FilterAnd(filter, driver.FilterID(string(id)))
	}

	drivers := m.manager.Query(filter)
	if len(drivers) == 0 {
		return nil, &MediaError{Name: NotFoundError, Message: "requested device not found"}
	}

	d, p, err := m.selectBestDriver(drivers, c)
	if err != nil {
		return nil, err
	}
	m.logger.Debugf("selected %s (%s) for %v: %dx%d %s", d.ID(), d.Info().Label, constraints, p.Width, p.Height, p.FrameFormat)

	t, err := newVideoTrack(d, p, m.videoTransform)
	if err != nil {
		return nil, err
	}
	return NewMediaStream(t), nil
}

// selectBestDriver implements SelectSettings algorithm.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-selectsettings
func (m *mediaDevices) selectBestDriver(drivers []driver.Driver, c prop.MediaConstraints) (driver.Driver, prop.Media, error) {
	var bestDriver driver.Driver
	var bestProp prop.Media
	var unsatisfied string
	var lastErr error
	minFitnessDist := math.Inf(1)

	for _, d := range drivers {
		props, err := queryDriverProperties(d)
		if err != nil {
			// Skip this driver if we failed to open because we can't get the properties
			m.logger.Warnf("skipping %s: %v", d.ID(), err)
			lastErr = err
			continue
		}

		info := d.Info()
		facingModes := info.FacingMode
		if len(facingModes) == 0 {
			facingModes = []string{""}
		}
		priority := float64(info.Priority)
		for _, p := range props {
			for _, fm := range facingModes {
				p := p
				p.Merge(prop.Media{Video: prop.Video{FacingMode: fm}})
				fitnessDist, ok := c.FitnessDistance(p)
				if !ok {
					if unsatisfied == "" {
						unsatisfied = c.Unsatisfied(p)
					}
					continue
				}
				fitnessDist -= priority
				if fitnessDist < minFitnessDist {
					minFitnessDist = fitnessDist
					bestDriver = d
					bestProp = p
				}
			}
		}
	}

	if bestDriver == nil {
		if unsatisfied != "" {
			return nil, prop.Media{}, &MediaError{
				Name:       OverconstrainedError,
				Message:    "no device satisfies the constraints",
				Constraint: unsatisfied,
			}
		}
		if lastErr != nil {
			return nil, prop.Media{}, &MediaError{Name: NotReadableError, Message: lastErr.Error(), Err: lastErr}
		}
		return nil, prop.Media{}, &MediaError{Name: NotFoundError, Message: "requested device not found"}
	}

	return bestDriver, bestProp, nil
}
