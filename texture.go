package mediasource

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// VideoTexture is the render side handle of a VideoSurface. It samples the
// surface's current frame and stays bound to that surface for its lifetime.
type VideoTexture struct {
	surface *VideoSurface

	mu        sync.Mutex
	disposed  bool
	onDispose []func()
}

// NewVideoTexture binds a texture to s. The texture is usable immediately and
// samples nothing until s presents a frame.
func NewVideoTexture(s *VideoSurface) *VideoTexture {
	return &VideoTexture{surface: s}
}

// Surface returns the bound surface.
func (t *VideoTexture) Surface() *VideoSurface {
	return t.surface
}

// Image returns the current frame, or nil before the first frame and after
// Dispose.
func (t *VideoTexture) Image() image.Image {
	if t.Disposed() {
		return nil
	}
	return t.surface.CurrentFrame()
}

// Draw scales the current frame into r of dst. It returns false if there
// was nothing to sample.
func (t *VideoTexture) Draw(dst draw.Image, r image.Rectangle) bool {
	if t.Disposed() {
		return false
	}
	return t.surface.withFrame(func(img image.Image) {
		draw.ApproxBiLinear.Scale(dst, r, img, img.Bounds(), draw.Src, nil)
	})
}

// OnDispose registers f to run when the texture is released.
func (t *VideoTexture) OnDispose(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDispose = append(t.onDispose, f)
}

// Disposed reports whether Dispose was called.
func (t *VideoTexture) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// Dispose releases the texture. Only the first call has an effect.
func (t *VideoTexture) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	handlers := t.onDispose
	t.onDispose = nil
	t.mu.Unlock()

	for _, f := range handlers {
		f()
	}
}
