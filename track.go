package mediasource

import (
	"image"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

// TrackKind is the media kind of a Track.
type TrackKind string

// TrackKindVideo is the only kind produced by this package.
const TrackKindVideo TrackKind = "video"

// Track is an interface that represent MediaStreamTrack
// Reference: https://w3c.github.io/mediacapture-main/#mediastreamtrack
type Track interface {
	ID() string
	Kind() TrackKind
	Label() string
	// Settings returns the properties the device was started with.
	Settings() prop.Media
	// Reader returns the frame source of the track. All readers share the
	// same underlying device.
	Reader() video.Reader
	// OnEnded registers a handler called once the track stops producing
	// frames. The error is io.EOF when the track was closed.
	OnEnded(func(error))
	Close() error
}

type videoTrack struct {
	id       string
	d        driver.Driver
	settings prop.Media
	source   video.Reader

	mu            sync.Mutex
	ended         bool
	endErr        error
	onEndedLocked []func(error)
}

func newVideoTrack(d driver.Driver, p prop.Media, transform video.TransformFunc) (*videoTrack, error) {
	recorder, ok := d.(driver.VideoRecorder)
	if !ok {
		return nil, &MediaError{Name: NotReadableError, Message: "device can't record video"}
	}

	// A device already running belongs to another track and is left alone
	// on failure.
	opened := false
	if d.Status() == driver.StateClosed {
		if err := d.Open(); err != nil {
			return nil, &MediaError{Name: NotReadableError, Message: err.Error(), Err: err}
		}
		opened = true
	}

	r, err := recorder.VideoRecord(p)
	if err != nil {
		if opened {
			d.Close()
		}
		return nil, &MediaError{Name: NotReadableError, Message: err.Error(), Err: err}
	}
	if transform != nil {
		r = transform(r)
	}

	return &videoTrack{
		id:       uuid.New().String(),
		d:        d,
		settings: p,
		source:   r,
	}, nil
}

func (t *videoTrack) ID() string {
	return t.id
}

func (t *videoTrack) Kind() TrackKind {
	return TrackKindVideo
}

func (t *videoTrack) Label() string {
	return t.d.Info().Label
}

func (t *videoTrack) Settings() prop.Media {
	return t.settings
}

func (t *videoTrack) Reader() video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		img, release, err := t.source.Read()
		if err != nil {
			t.end(err)
			return nil, func() {}, err
		}
		return img, release, nil
	})
}

func (t *videoTrack) OnEnded(f func(error)) {
	t.mu.Lock()
	if !t.ended {
		t.onEndedLocked = append(t.onEndedLocked, f)
		t.mu.Unlock()
		return
	}
	err := t.endErr
	t.mu.Unlock()
	f(err)
}

func (t *videoTrack) end(err error) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	t.endErr = err
	handlers := t.onEndedLocked
	t.onEndedLocked = nil
	t.mu.Unlock()

	for _, f := range handlers {
		f(err)
	}
}

// Close stops the device. Pending and later reads return io.EOF.
func (t *videoTrack) Close() error {
	t.end(io.EOF)
	return t.d.Close()
}
