// Package mediasource feeds a live camera stream to a render pipeline.
//
// A MediaSource picks a capture device, attaches its stream to a
// VideoSurface and exposes a VideoTexture sampling that surface. Acquisition
// runs in the background; the outcome is published as exactly one of the
// EventStarted or EventError events.
package mediasource

import (
	"context"
	"strconv"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/mediasource/pkg/event"
)

// Event names published by a MediaSource.
const (
	EventStarted = "started"
	EventError   = "error"
)

// StartedEvent is the payload of EventStarted.
type StartedEvent struct {
	Texture *VideoTexture
}

type options struct {
	surface            *VideoSurface
	findMaxWidthDevice bool
	devices            MediaDevices
	emitter            event.Emitter
	loggerFactory      logging.LoggerFactory
}

// Option configures a MediaSource.
type Option func(*options)

// WithSurface renders into a caller owned surface instead of a hidden one
// created by the source.
func WithSurface(s *VideoSurface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithMaxWidthDevice makes the source request the environment facing camera
// with the widest supported resolution, ignoring the given constraints when
// such a camera exists.
func WithMaxWidthDevice(enabled bool) Option {
	return func(o *options) {
		o.findMaxWidthDevice = enabled
	}
}

// WithMediaDevices sets the capture platform. A nil md, or one implementing
// Supporter that reports false, means the platform can't capture media.
func WithMediaDevices(md MediaDevices) Option {
	return func(o *options) {
		o.devices = md
	}
}

// WithEmitter also publishes the terminal event through e. A shared e sees
// the events of every source using it; handlers registered with
// MediaSource.On only ever see their own source.
func WithEmitter(e event.Emitter) Option {
	return func(o *options) {
		o.emitter = e
	}
}

// WithLoggerFactory replaces the logger factory used for diagnostics.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *options) {
		o.loggerFactory = f
	}
}

// MediaSource acquires a camera stream and binds it to a texture.
type MediaSource struct {
	surface  *VideoSurface
	texture  *VideoTexture
	devices  MediaDevices
	log      logging.LeveledLogger
	handlers event.Emitter

	// emitter is the optional shared emitter, nil unless injected.
	emitter event.Emitter

	mu       sync.Mutex
	deviceID string
	terminal string
	payload  interface{}
	err      *ErrorEvent
	done     chan struct{}
}

// New creates a MediaSource and starts acquiring a stream in the background.
// Zero value constraints are replaced by DefaultConstraints. New never blocks
// and never fails; failures are published as EventError.
func New(constraints MediaStreamConstraints, opts ...Option) *MediaSource {
	o := options{
		devices:       NewMediaDevices(),
		loggerFactory: loggerFactory,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if constraints.Video == nil {
		constraints = DefaultConstraints()
	}

	surface := o.surface
	if surface == nil {
		surface = NewVideoSurface()
		surface.SetAttribute("autoplay", "true")
		surface.SetAttribute("playsinline", "true")
		surface.SetHidden(true)
	}

	s := &MediaSource{
		surface:  surface,
		texture:  NewVideoTexture(surface),
		handlers: event.New(),
		emitter:  o.emitter,
		devices:  o.devices,
		log:      o.loggerFactory.NewLogger("mediasource"),
		done:     make(chan struct{}),
	}

	go s.init(constraints, o.findMaxWidthDevice)
	return s
}

func (s *MediaSource) init(constraints MediaStreamConstraints, findMaxWidthDevice bool) {
	ctx := context.Background()

	if !supported(s.devices) {
		s.finishError(ErrorEvent{
			Code:    CodeNoMediaDevicesAPI,
			Message: "media devices API not supported",
		})
		return
	}

	if findMaxWidthDevice {
		devices, err := s.devices.EnumerateDevices(ctx)
		if err != nil {
			s.finishError(errorEventFrom(err))
			return
		}
		if id, ok := selectMaxWidthDevice(ctx, devices, s.log); ok {
			s.log.Infof("found the max width device %s, requesting it", id)
			s.setDeviceID(id)
			constraints = deviceConstraints(id)
		}
	}

	stream, err := s.devices.GetUserMedia(ctx, constraints)
	if err != nil {
		s.finishError(errorEventFrom(err))
		return
	}
	if tracks := stream.GetVideoTracks(); len(tracks) > 0 && s.DeviceID() == "" {
		s.setDeviceID(tracks[0].Settings().DeviceID)
	}

	var bind sync.Once
	s.surface.OnLoadedMetadata(func() {
		bind.Do(s.bind)
	})
	s.surface.OnError(func(err error) {
		s.finishError(errorEventFrom(err))
	})
	s.surface.SetSrcObject(stream)
}

func supported(md MediaDevices) bool {
	if md == nil {
		return false
	}
	if sp, ok := md.(Supporter); ok {
		return sp.Supported()
	}
	return true
}

// bind runs once the intrinsic size of the stream is known.
func (s *MediaSource) bind() {
	width, height := s.surface.VideoWidth(), s.surface.VideoHeight()
	s.surface.SetAttribute("width", strconv.Itoa(width))
	s.surface.SetAttribute("height", strconv.Itoa(height))
	if err := s.surface.Play(); err != nil {
		s.finishError(errorEventFrom(err))
		return
	}
	s.log.Debugf("started %dx%d", width, height)
	s.finish(EventStarted, StartedEvent{Texture: s.texture})
}

func (s *MediaSource) finishError(e ErrorEvent) {
	s.finish(EventError, e)
}

// finish publishes the terminal event. Only the first call has an effect.
func (s *MediaSource) finish(name string, payload interface{}) {
	s.mu.Lock()
	if s.terminal != "" {
		s.mu.Unlock()
		return
	}
	s.terminal = name
	s.payload = payload
	if e, ok := payload.(ErrorEvent); ok {
		s.err = &e
	}
	s.mu.Unlock()

	if name == EventError {
		s.log.Errorf("%v", payload)
	}
	s.handlers.Emit(name, payload)
	if s.emitter != nil {
		s.emitter.Emit(name, payload)
	}
	close(s.done)
}

func (s *MediaSource) setDeviceID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = id
}

// On registers h for the named event. If the event has already been
// published, h is called immediately with its payload.
func (s *MediaSource) On(name string, h event.Handler) {
	s.mu.Lock()
	if s.terminal == "" {
		s.handlers.On(name, h)
		s.mu.Unlock()
		return
	}
	terminal, payload := s.terminal, s.payload
	s.mu.Unlock()

	if terminal == name {
		h(payload)
	}
}

// OnStarted registers a typed EventStarted handler.
func (s *MediaSource) OnStarted(f func(StartedEvent)) {
	s.On(EventStarted, func(payload interface{}) {
		f(payload.(StartedEvent))
	})
}

// OnError registers a typed EventError handler.
func (s *MediaSource) OnError(f func(ErrorEvent)) {
	s.On(EventError, func(payload interface{}) {
		f(payload.(ErrorEvent))
	})
}

// Done is closed after the terminal event has been published.
func (s *MediaSource) Done() <-chan struct{} {
	return s.done
}

// Texture returns the texture created at construction.
func (s *MediaSource) Texture() *VideoTexture {
	return s.texture
}

// DeviceID returns the id of the selected device, or "" if none is known yet.
func (s *MediaSource) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// Err returns the published error, or nil.
func (s *MediaSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return *s.err
}

// Dispose releases the texture. The stream keeps running and a caller owned
// surface stays attached to it. Dispose must not be called while the source
// is still acquiring, and the source must not be used afterwards.
func (s *MediaSource) Dispose() {
	s.texture.Dispose()
}
