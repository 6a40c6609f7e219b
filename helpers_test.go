package mediasource

import (
	"context"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

const waitTimeout = 5 * time.Second

// fakeTrack produces blank frames of a fixed size until closed.
type fakeTrack struct {
	id       string
	size     image.Point
	settings prop.Media
	readErr  error

	mu      sync.Mutex
	closed  chan struct{}
	onEnded []func(error)
	ended   bool
}

func newFakeTrack(width, height int) *fakeTrack {
	return &fakeTrack{
		id:       uuid.New().String(),
		size:     image.Pt(width, height),
		settings: prop.Media{DeviceID: "fake", Video: prop.Video{Width: width, Height: height}},
		closed:   make(chan struct{}),
	}
}

func (t *fakeTrack) ID() string           { return t.id }
func (t *fakeTrack) Kind() TrackKind      { return TrackKindVideo }
func (t *fakeTrack) Label() string        { return "fake" }
func (t *fakeTrack) Settings() prop.Media { return t.settings }

func (t *fakeTrack) Reader() video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		if t.readErr != nil {
			t.end(t.readErr)
			return nil, func() {}, t.readErr
		}
		select {
		case <-t.closed:
			t.end(io.EOF)
			return nil, func() {}, io.EOF
		case <-time.After(time.Millisecond):
		}
		img := image.NewYCbCr(image.Rectangle{Max: t.size}, image.YCbCrSubsampleRatio420)
		return img, func() {}, nil
	})
}

func (t *fakeTrack) OnEnded(f func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = append(t.onEnded, f)
}

func (t *fakeTrack) end(err error) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	handlers := t.onEnded
	t.mu.Unlock()
	for _, f := range handlers {
		f(err)
	}
}

func (t *fakeTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}

// fakeDevices is a MediaDevices spy.
type fakeDevices struct {
	devices      []MediaDeviceInfo
	enumerateErr error
	stream       MediaStream
	gumErr       error
	unsupported  bool

	mu         sync.Mutex
	enumerated int
	requests   []MediaStreamConstraints
}

func (f *fakeDevices) Supported() bool {
	return !f.unsupported
}

func (f *fakeDevices) EnumerateDevices(ctx context.Context) ([]MediaDeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enumerated++
	return f.devices, f.enumerateErr
}

func (f *fakeDevices) GetUserMedia(ctx context.Context, c MediaStreamConstraints) (MediaStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.gumErr != nil {
		return nil, f.gumErr
	}
	return f.stream, nil
}

func (f *fakeDevices) Requests() []MediaStreamConstraints {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MediaStreamConstraints(nil), f.requests...)
}

func cameraInfo(id string, facingMode []string, maxWidth int) MediaDeviceInfo {
	return MediaDeviceInfo{
		DeviceID: id,
		Kind:     VideoInput,
		Label:    id,
		CapabilitiesFunc: func(context.Context) (MediaTrackCapabilities, error) {
			caps := MediaTrackCapabilities{DeviceID: id, FacingMode: facingMode}
			if maxWidth > 0 {
				caps.Width = &prop.IntRange{Min: 1, Max: maxWidth}
			}
			return caps, nil
		},
	}
}

func waitDone(t *testing.T, s *MediaSource) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a terminal event")
	}
}

// stopStream closes every track attached to the surface of s.
func stopStream(s *MediaSource) {
	if ms := s.surface.SrcObject(); ms != nil {
		for _, t := range ms.GetTracks() {
			t.Close()
		}
	}
}

func environmentConstraints() MediaStreamConstraints {
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

// countingLogger counts warnings and errors logged through it.
type countingLogger struct {
	mu       sync.Mutex
	problems int
}

func (l *countingLogger) NewLogger(string) logging.LeveledLogger { return l }

func (l *countingLogger) problem() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.problems++
}

func (l *countingLogger) Problems() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.problems
}

func (l *countingLogger) Trace(string) {}
func (l *countingLogger) Tracef(string, ...interface{}) {}
func (l *countingLogger) Debug(string) {}
func (l *countingLogger) Debugf(string, ...interface{}) {}
func (l *countingLogger) Info(string) {}
func (l *countingLogger) Infof(string, ...interface{}) {}
func (l *countingLogger) Warn(string) { l.problem() }
func (l *countingLogger) Warnf(string, ...interface{}) { l.problem() }
func (l *countingLogger) Error(string) { l.problem() }
func (l *countingLogger) Errorf(string, ...interface{}) { l.problem() }
