package mediasource

import (
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

var (
	errNoSource     = errors.New("surface has no source")
	errNoVideoTrack = errors.New("stream has no video track")
)

// frameRateInterval is how often the surface re-estimates the frame rate.
const frameRateInterval = time.Second

// VideoSurface decodes a MediaStream and holds its latest frame. It is the
// pixel source of a VideoTexture.
type VideoSurface struct {
	mu          sync.RWMutex
	attrs       map[string]string
	hidden      bool
	src         MediaStream
	generation  uint64
	videoWidth  int
	videoHeight int
	frameRate   float32
	loaded      bool
	playing     bool
	ended       bool
	frames      *video.FrameBuffer
	presented   uint64

	onLoadedMetadata []func()
	onError          []func(error)
}

// NewVideoSurface creates an empty surface.
func NewVideoSurface() *VideoSurface {
	return &VideoSurface{
		attrs:  make(map[string]string),
		frames: video.NewFrameBuffer(0),
	}
}

// SetAttribute sets a declared attribute such as "width" or "autoplay".
func (s *VideoSurface) SetAttribute(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[name] = value
}

// Attribute returns a declared attribute.
func (s *VideoSurface) Attribute(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[name]
	return v, ok
}

// RemoveAttribute removes a declared attribute.
func (s *VideoSurface) RemoveAttribute(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attrs, name)
}

// SetHidden hides the surface from display. Frames are still decoded.
func (s *VideoSurface) SetHidden(hidden bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = hidden
}

// Hidden reports whether the surface is hidden.
func (s *VideoSurface) Hidden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hidden
}

// OnLoadedMetadata registers f to be called each time the intrinsic size of
// a newly attached stream becomes known.
func (s *VideoSurface) OnLoadedMetadata(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoadedMetadata = append(s.onLoadedMetadata, f)
}

// OnError registers f to be called when the attached stream fails. A stream
// that ends normally after its metadata was loaded is not an error.
func (s *VideoSurface) OnError(f func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, f)
}

// SrcObject returns the attached stream.
func (s *VideoSurface) SrcObject() MediaStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src
}

// SetSrcObject attaches ms and starts decoding its first video track. A nil
// ms detaches the current stream.
func (s *VideoSurface) SetSrcObject(ms MediaStream) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.src = ms
	s.videoWidth, s.videoHeight, s.frameRate = 0, 0, 0
	s.loaded, s.playing, s.ended = false, false, false
	s.mu.Unlock()

	if ms == nil {
		return
	}

	tracks := ms.GetVideoTracks()
	if len(tracks) == 0 {
		go s.fail(gen, errNoVideoTrack)
		return
	}
	go s.pump(gen, tracks[0])
}

func (s *VideoSurface) pump(gen uint64, t Track) {
	r := video.DetectChanges(frameRateInterval, func(p prop.Media) {
		s.updateMetadata(gen, p)
	})(t.Reader())

	for {
		img, release, err := r.Read()
		if err != nil {
			s.fail(gen, err)
			return
		}
		current := s.present(gen, img)
		release()
		if !current {
			return
		}
	}
}

func (s *VideoSurface) updateMetadata(gen uint64, p prop.Media) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.videoWidth, s.videoHeight = p.Width, p.Height
	s.frameRate = p.FrameRate
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.loaded = true
	if _, ok := s.attrs["autoplay"]; ok {
		s.playing = true
	}
	handlers := append([]func(){}, s.onLoadedMetadata...)
	s.mu.Unlock()

	for _, f := range handlers {
		f()
	}
}

// present stores img if the surface is playing. It returns false once gen
// is no longer the attached stream.
func (s *VideoSurface) present(gen uint64, img image.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	if s.playing {
		s.frames.StoreCopy(img)
		s.presented++
	}
	return true
}

func (s *VideoSurface) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.ended = true
	if s.loaded && errors.Is(err, io.EOF) {
		s.mu.Unlock()
		return
	}
	handlers := append([]func(error){}, s.onError...)
	s.mu.Unlock()

	for _, f := range handlers {
		f(err)
	}
}

// Play starts presenting frames of the attached stream.
func (s *VideoSurface) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.src == nil {
		return errNoSource
	}
	s.playing = true
	return nil
}

// Pause stops presenting new frames. The last frame stays current.
func (s *VideoSurface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Playing reports whether frames are being presented.
func (s *VideoSurface) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

// Ended reports whether the attached stream stopped producing frames.
func (s *VideoSurface) Ended() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ended
}

// VideoWidth is the intrinsic width of the attached stream, 0 until known.
func (s *VideoSurface) VideoWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoWidth
}

// VideoHeight is the intrinsic height of the attached stream, 0 until known.
func (s *VideoSurface) VideoHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoHeight
}

// FrameRate is the measured frame rate of the attached stream.
func (s *VideoSurface) FrameRate() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameRate
}

// FramesPresented counts the frames stored since construction.
func (s *VideoSurface) FramesPresented() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presented
}

// CurrentFrame returns the latest presented frame, or nil. The image is
// only valid until the next frame is presented; VideoTexture.Draw copies it
// out safely.
func (s *VideoSurface) CurrentFrame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames.Load()
}

// withFrame calls f with the latest frame while holding it stable.
func (s *VideoSurface) withFrame(f func(image.Image)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img := s.frames.Load()
	if img == nil {
		return false
	}
	f(img)
	return true
}
