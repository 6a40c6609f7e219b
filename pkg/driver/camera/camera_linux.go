//go:build linux

package camera

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/blackjack/webcam"
	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/frame"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
	"github.com/pkg/errors"
)

const (
	maxEmptyFrameCount = 5
	readTimeoutSeconds = 5
)

var (
	errReadTimeout = errors.New("read timeout")
	errEmptyFrame  = errors.New("empty frame")
	errNotOpened   = errors.New("camera is not opened")
)

func fourcc(a, b, c, d byte) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var (
	pixFmtYUYV  = fourcc('Y', 'U', 'Y', 'V')
	pixFmtNV21  = fourcc('N', 'V', '2', '1')
	pixFmtI420  = fourcc('Y', 'U', '1', '2')
	pixFmtMJPEG = fourcc('M', 'J', 'P', 'G')
)

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	path            string
	cam             *webcam.Webcam
	formats         map[webcam.PixelFormat]frame.Format
	reversedFormats map[frame.Format]webcam.PixelFormat
	mutex           sync.Mutex
	cancel          func()
}

// Initialize finds and registers camera devices. This is part of an experimental API.
func Initialize() {
	discovered := make(map[string]struct{})
	discover(driver.GetManager(), discovered, "/dev/v4l/by-path/*")
	discover(driver.GetManager(), discovered, "/dev/video*")
}

func discover(m *driver.Manager, discovered map[string]struct{}, pattern string) {
	devices, err := filepath.Glob(pattern)
	if err != nil {
		// No v4l device.
		return
	}
	for _, device := range devices {
		label := filepath.Base(device)
		reallink, err := os.Readlink(device)
		if err != nil {
			reallink = label
		} else {
			reallink = filepath.Base(reallink)
		}
		if _, ok := discovered[reallink]; ok {
			continue
		}
		discovered[reallink] = struct{}{}

		cam := newCamera(device)
		if _, err := m.Register(cam, driver.Info{
			Label:      label + LabelSeparator + reallink,
			DeviceType: driver.Camera,
		}); err != nil {
			logger.Warnf("failed to register %s: %v", device, err)
		}
	}
}

func newCamera(path string) *camera {
	formats := map[webcam.PixelFormat]frame.Format{
		pixFmtYUYV:  frame.FormatYUYV,
		pixFmtNV21:  frame.FormatNV21,
		pixFmtI420:  frame.FormatI420,
		pixFmtMJPEG: frame.FormatMJPEG,
	}

	reversedFormats := make(map[frame.Format]webcam.PixelFormat)
	for k, v := range formats {
		reversedFormats[v] = k
	}

	return &camera{
		path:            path,
		formats:         formats,
		reversedFormats: reversedFormats,
	}
}

func (c *camera) Open() error {
	cam, err := webcam.Open(c.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", c.path)
	}

	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}

	if c.cancel != nil {
		// Let the reader knows that the caller has closed the camera
		c.cancel()
		// Wait until the reader unref the buffer
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Note: StopStreaming frees frame buffers even if they are still used in Go code.
		c.cam.StopStreaming()
		c.cancel = nil
	}
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) VideoRecord(p prop.Media) (video.Reader, error) {
	if c.cam == nil {
		return nil, errNotOpened
	}

	decoder, err := frame.NewDecoder(p.FrameFormat)
	if err != nil {
		return nil, err
	}

	pf := c.reversedFormats[p.FrameFormat]
	_, w, h, err := c.cam.SetImageFormat(pf, uint32(p.Width), uint32(p.Height))
	if err != nil {
		return nil, errors.Wrapf(err, "set format %s %dx%d", p.FrameFormat, p.Width, p.Height)
	}
	width, height := int(w), int(h)
	logger.Debugf("%s streaming %s %dx%d", c.path, p.FrameFormat, width, height)

	if err := c.cam.StartStreaming(); err != nil {
		return nil, errors.Wrap(err, "start streaming")
	}

	cam := c.cam

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	var buf []byte
	r := video.ReaderFunc(func() (image.Image, func(), error) {
		// Lock to avoid accessing the buffer after StopStreaming()
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Wait until a frame is ready
		for i := 0; i < maxEmptyFrameCount; i++ {
			if ctx.Err() != nil {
				// Return EOF if the camera is already closed.
				return nil, func() {}, io.EOF
			}

			err := cam.WaitForFrame(readTimeoutSeconds)
			switch err.(type) {
			case nil:
			case *webcam.Timeout:
				return nil, func() {}, errReadTimeout
			default:
				// Camera has been stopped.
				return nil, func() {}, err
			}

			b, err := cam.ReadFrame()
			if err != nil {
				// Camera has been stopped.
				return nil, func() {}, err
			}

			// Frame is empty.
			// Retry reading and return errEmptyFrame if it exceeds maxEmptyFrameCount.
			if len(b) == 0 {
				continue
			}

			if len(b) > len(buf) {
				// Grow the intermediate buffer
				buf = make([]byte, len(b))
			}

			// move the memory from mmap to Go. This will guarantee that any data that's going out
			// from this reader will be Go safe.
			n := copy(buf, b)
			return decoder.Decode(buf[:n], width, height)
		}
		return nil, func() {}, errEmptyFrame
	})

	return r, nil
}

func (c *camera) Properties() []prop.Media {
	if c.cam == nil {
		return nil
	}

	properties := make([]prop.Media, 0)
	for format := range c.cam.GetSupportedFormats() {
		f, ok := c.formats[format]
		if !ok {
			continue
		}
		for _, frameSize := range c.cam.GetSupportedFrameSizes(format) {
			properties = append(properties, prop.Media{
				Video: prop.Video{
					Width:       int(frameSize.MaxWidth),
					Height:      int(frameSize.MaxHeight),
					FrameFormat: f,
				},
			})
		}
	}
	return properties
}
