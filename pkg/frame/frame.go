// Package frame decodes raw device buffers into images.
package frame

import (
	"fmt"
	"image"
)

// Decoder turns one raw frame into an image. The returned release func must be
// called once the image is no longer used.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, func(), error)
}

// DecoderFunc is a proxy type for Decoder
type DecoderFunc func(frame []byte, width, height int) (image.Image, func(), error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(frame []byte, width, height int) (image.Image, func(), error) {
	return f(frame, width, height)
}

// NewDecoder returns the decoder for f.
func NewDecoder(f Format) (Decoder, error) {
	switch f {
	case FormatI420:
		return DecoderFunc(decodeI420), nil
	case FormatNV21:
		return DecoderFunc(decodeNV21), nil
	case FormatYUY2:
		return DecoderFunc(decodeYUY2), nil
	case FormatMJPEG:
		return DecoderFunc(decodeMJPEG), nil
	}
	return nil, fmt.Errorf("%s is not supported", f)
}

func noopRelease() {}
