package video

import (
	"image"
	"image/draw"
)

// FrameBuffer keeps a private copy of the latest frame so the producer can
// recycle its buffers. Gray, RGBA and YCbCr frames are stored as is; anything
// else is converted to RGBA first.
type FrameBuffer struct {
	buffer []uint8
	img    image.Image
}

// NewFrameBuffer creates a FrameBuffer with initialSize bytes preallocated.
func NewFrameBuffer(initialSize int) *FrameBuffer {
	return &FrameBuffer{
		buffer: make([]uint8, initialSize),
	}
}

// planes copies every plane back to back into the internal buffer and
// returns the copies, each capped at its own length.
func (buff *FrameBuffer) planes(srcs ...[]uint8) [][]uint8 {
	var n int
	for _, src := range srcs {
		n += len(src)
	}
	if cap(buff.buffer) < n {
		buff.buffer = make([]uint8, n)
	}
	buff.buffer = buff.buffer[:n]

	out := make([][]uint8, len(srcs))
	var off int
	for i, src := range srcs {
		end := off + copy(buff.buffer[off:], src)
		out[i] = buff.buffer[off:end:end]
		off = end
	}
	return out
}

// Load returns the stored frame, or nil if nothing was stored yet.
func (buff *FrameBuffer) Load() image.Image {
	return buff.img
}

// StoreCopy stores a copy of src. Memory of the previous copy is reused, so an
// image returned by Load is only valid until the next StoreCopy.
func (buff *FrameBuffer) StoreCopy(src image.Image) {
	switch src := src.(type) {
	case *image.Gray:
		dst, ok := buff.img.(*image.Gray)
		if !ok {
			dst = new(image.Gray)
		}
		*dst = *src
		dst.Pix = buff.planes(src.Pix)[0]
		buff.img = dst
	case *image.RGBA:
		dst, ok := buff.img.(*image.RGBA)
		if !ok {
			dst = new(image.RGBA)
		}
		*dst = *src
		dst.Pix = buff.planes(src.Pix)[0]
		buff.img = dst
	case *image.YCbCr:
		dst, ok := buff.img.(*image.YCbCr)
		if !ok {
			dst = new(image.YCbCr)
		}
		*dst = *src
		p := buff.planes(src.Y, src.Cb, src.Cr)
		dst.Y, dst.Cb, dst.Cr = p[0], p[1], p[2]
		buff.img = dst
	default:
		converted := image.NewRGBA(src.Bounds())
		draw.Draw(converted, converted.Rect, src, src.Bounds().Min, draw.Src)
		buff.StoreCopy(converted)
	}
}
