// Package videotest provides a configurable dummy camera driver for testing.
package videotest

import (
	"context"
	"image"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/frame"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
)

// Config describes the dummy camera.
type Config struct {
	Label string
	// FacingMode is reported through driver.Info.
	FacingMode []string
	// Sizes are the supported resolutions. Defaults to 640x480.
	Sizes []image.Point
	// FrameRate defaults to 30.
	FrameRate float32
	// OpenErr, when set, is returned by every Open call.
	OpenErr error
	// RecordErr, when set, is returned by VideoRecord.
	RecordErr error
	// Frames limits the number of frames produced before io.EOF. Zero means unlimited.
	Frames int
}

// Register creates a dummy camera from cfg and registers it to m.
func Register(m *driver.Manager, cfg Config) (driver.Driver, error) {
	label := cfg.Label
	if label == "" {
		label = "VideoTest"
	}
	return m.Register(New(cfg), driver.Info{
		Label:      label,
		DeviceType: driver.Camera,
		FacingMode: cfg.FacingMode,
	})
}

type dummy struct {
	cfg Config

	mu     sync.Mutex
	closed <-chan struct{}
	cancel func()
	tick   *time.Ticker
}

// New returns the dummy camera adapter.
func New(cfg Config) driver.Adapter {
	if len(cfg.Sizes) == 0 {
		cfg.Sizes = []image.Point{{X: 640, Y: 480}}
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = 30
	}
	return &dummy{cfg: cfg}
}

func (d *dummy) Open() error {
	if d.cfg.OpenErr != nil {
		return d.cfg.OpenErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	d.closed = ctx.Done()
	d.cancel = cancel
	return nil
}

func (d *dummy) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	if d.tick != nil {
		d.tick.Stop()
	}
	return nil
}

func (d *dummy) VideoRecord(p prop.Media) (video.Reader, error) {
	if d.cfg.RecordErr != nil {
		return nil, d.cfg.RecordErr
	}
	if p.Width == 0 || p.Height == 0 {
		p.Width, p.Height = d.cfg.Sizes[0].X, d.cfg.Sizes[0].Y
	}
	if p.FrameRate == 0 {
		p.FrameRate = d.cfg.FrameRate
	}

	base := colorBars(p.Width, p.Height)
	random := rand.New(rand.NewSource(0))

	d.mu.Lock()
	tick := time.NewTicker(time.Duration(float32(time.Second) / p.FrameRate))
	d.tick = tick
	closed := d.closed
	d.mu.Unlock()

	var produced int
	r := video.ReaderFunc(func() (image.Image, func(), error) {
		select {
		case <-closed:
			return nil, func() {}, io.EOF
		default:
		}
		if d.cfg.Frames > 0 && produced >= d.cfg.Frames {
			return nil, func() {}, io.EOF
		}

		select {
		case <-closed:
			return nil, func() {}, io.EOF
		case <-tick.C:
		}
		produced++

		img := image.NewYCbCr(base.Rect, base.SubsampleRatio)
		copy(img.Y, base.Y)
		copy(img.Cb, base.Cb)
		copy(img.Cr, base.Cr)
		// Noise in the bottom right corner so consecutive frames differ.
		for y := p.Height * 3 / 4; y < p.Height; y++ {
			for x := p.Width * 5 / 7; x < p.Width; x++ {
				img.Y[y*img.YStride+x] = uint8(random.Int31n(2) * 255)
			}
		}
		return img, func() {}, nil
	})

	return r, nil
}

func (d *dummy) Properties() []prop.Media {
	props := make([]prop.Media, 0, len(d.cfg.Sizes))
	for _, size := range d.cfg.Sizes {
		props = append(props, prop.Media{
			Video: prop.Video{
				Width:       size.X,
				Height:      size.Y,
				FrameRate:   d.cfg.FrameRate,
				FrameFormat: frame.FormatI420,
			},
		})
	}
	return props
}

func colorBars(width, height int) *image.YCbCr {
	colors := [][3]byte{
		{235, 128, 128},
		{210, 16, 146},
		{170, 166, 16},
		{145, 54, 34},
		{107, 202, 222},
		{82, 90, 240},
		{41, 240, 110},
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	hColorBarEnd := height * 3 / 4
	wGradationEnd := width * 5 / 7
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yi := img.YOffset(x, y)
			ci := img.COffset(x, y)
			switch {
			case y < hColorBarEnd:
				c := colors[x*7/width]
				img.Y[yi] = uint8(uint16(c[0]) * 75 / 100)
				img.Cb[ci] = c[1]
				img.Cr[ci] = c[2]
			case x < wGradationEnd:
				// Gray gradation
				img.Y[yi] = uint8(x * 255 / wGradationEnd)
				img.Cb[ci] = 128
				img.Cr[ci] = 128
			default:
				img.Cb[ci] = 128
				img.Cr[ci] = 128
			}
		}
	}
	return img
}
