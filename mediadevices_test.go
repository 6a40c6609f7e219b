package mediasource

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/pion/mediasource/pkg/driver"
	"github.com/pion/mediasource/pkg/driver/videotest"
	"github.com/pion/mediasource/pkg/io/video"
	"github.com/pion/mediasource/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, cfgs ...videotest.Config) (*driver.Manager, []driver.Driver) {
	t.Helper()
	m := &driver.Manager{}
	var drivers []driver.Driver
	for _, cfg := range cfgs {
		if cfg.FrameRate == 0 {
			cfg.FrameRate = 100
		}
		d, err := videotest.Register(m, cfg)
		require.NoError(t, err)
		drivers = append(drivers, d)
	}
	return m, drivers
}

func closeTracks(ms MediaStream) {
	for _, t := range ms.GetTracks() {
		t.Close()
	}
}

func TestEnumerateDevices(t *testing.T) {
	m, drivers := newTestManager(t,
		videotest.Config{Label: "front", FacingMode: []string{FacingModeUser}},
		videotest.Config{
			Label:      "rear",
			FacingMode: []string{FacingModeEnvironment},
			Sizes:      []image.Point{{X: 320, Y: 240}, {X: 1920, Y: 1080}},
		},
	)
	md := NewMediaDevices(WithDriverManager(m))

	infos, err := md.EnumerateDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, drivers[0].ID(), infos[0].DeviceID)
	assert.Equal(t, "front", infos[0].Label)
	assert.Equal(t, VideoInput, infos[0].Kind)
	assert.Equal(t, "videoinput", infos[0].Kind.String())

	caps, err := infos[1].Capabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, drivers[1].ID(), caps.DeviceID)
	assert.True(t, caps.HasFacingMode(FacingModeEnvironment))
	assert.Equal(t, &prop.IntRange{Min: 320, Max: 1920}, caps.Width)
	assert.Equal(t, &prop.IntRange{Min: 240, Max: 1080}, caps.Height)
	assert.Equal(t, driver.StateClosed, drivers[1].Status(), "querying capabilities closes the driver again")
}

func TestEnumerateDevicesCapabilitiesError(t *testing.T) {
	errBusy := errors.New("busy")
	m, _ := newTestManager(t, videotest.Config{OpenErr: errBusy})

	infos, err := NewMediaDevices(WithDriverManager(m)).EnumerateDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)

	_, err = infos[0].Capabilities(context.Background())
	assert.Equal(t, errBusy, err)
}

func TestGetUserMedia(t *testing.T) {
	m, drivers := newTestManager(t,
		videotest.Config{Label: "front", FacingMode: []string{FacingModeUser}},
		videotest.Config{Label: "rear", FacingMode: []string{FacingModeEnvironment}},
	)
	md := NewMediaDevices(WithDriverManager(m))

	t.Run("FacingModeIdeal", func(t *testing.T) {
		ms, err := md.GetUserMedia(context.Background(), environmentConstraints())
		require.NoError(t, err)
		defer closeTracks(ms)

		tracks := ms.GetVideoTracks()
		require.Len(t, tracks, 1)
		assert.Equal(t, "rear", tracks[0].Label())
		assert.Equal(t, drivers[1].ID(), tracks[0].Settings().DeviceID)
		assert.Equal(t, FacingModeEnvironment, tracks[0].Settings().FacingMode)
	})

	t.Run("ExactDeviceID", func(t *testing.T) {
		ms, err := md.GetUserMedia(context.Background(), deviceConstraints(drivers[0].ID()))
		require.NoError(t, err)
		defer closeTracks(ms)

		tracks := ms.GetVideoTracks()
		require.Len(t, tracks, 1)
		assert.Equal(t, "front", tracks[0].Label())

		img, release, err := tracks[0].Reader().Read()
		require.NoError(t, err)
		release()
		assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
	})

	t.Run("UnknownDeviceID", func(t *testing.T) {
		_, err := md.GetUserMedia(context.Background(), deviceConstraints("missing"))
		var me *MediaError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, NotFoundError, me.Name)
	})

	t.Run("Overconstrained", func(t *testing.T) {
		c := environmentConstraints()
		c.Video.Width = prop.IntExact(10000)
		_, err := md.GetUserMedia(context.Background(), c)
		var me *MediaError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, OverconstrainedError, me.Name)
		assert.Equal(t, "width", me.Constraint)
	})

	t.Run("NoVideo", func(t *testing.T) {
		_, err := md.GetUserMedia(context.Background(), MediaStreamConstraints{})
		var me *MediaError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, TypeError, me.Name)
	})

	t.Run("DeviceBusy", func(t *testing.T) {
		ms, err := md.GetUserMedia(context.Background(), deviceConstraints(drivers[0].ID()))
		require.NoError(t, err)
		defer closeTracks(ms)

		_, err = md.GetUserMedia(context.Background(), deviceConstraints(drivers[0].ID()))
		var me *MediaError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, NotReadableError, me.Name)
	})
}

func TestGetUserMediaNoDevices(t *testing.T) {
	md := NewMediaDevices(WithDriverManager(&driver.Manager{}))
	_, err := md.GetUserMedia(context.Background(), DefaultConstraints())
	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, NotFoundError, me.Name)
}

func TestGetUserMediaOpenFailure(t *testing.T) {
	m, _ := newTestManager(t, videotest.Config{OpenErr: errors.New("permission denied by driver")})
	_, err := NewMediaDevices(WithDriverManager(m)).GetUserMedia(context.Background(), DefaultConstraints())
	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, NotReadableError, me.Name)
	assert.Equal(t, "permission denied by driver", me.Message)
}

func TestGetUserMediaRecordFailureClosesDriver(t *testing.T) {
	m, drivers := newTestManager(t, videotest.Config{RecordErr: errors.New("unplugged")})
	_, err := NewMediaDevices(WithDriverManager(m)).GetUserMedia(context.Background(), DefaultConstraints())
	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, NotReadableError, me.Name)
	assert.Equal(t, driver.StateClosed, drivers[0].Status())
}

func TestGetUserMediaVideoTransformers(t *testing.T) {
	m, _ := newTestManager(t, videotest.Config{})
	var frames int
	count := func(r video.Reader) video.Reader {
		return video.ReaderFunc(func() (image.Image, func(), error) {
			frames++
			return r.Read()
		})
	}

	ms, err := NewMediaDevices(WithDriverManager(m), WithVideoTransformers(count)).
		GetUserMedia(context.Background(), DefaultConstraints())
	require.NoError(t, err)
	defer closeTracks(ms)

	_, _, err = ms.GetVideoTracks()[0].Reader().Read()
	require.NoError(t, err)
	assert.Equal(t, 1, frames)
}

func TestTrackEndsOnClose(t *testing.T) {
	m, drivers := newTestManager(t, videotest.Config{})
	ms, err := NewMediaDevices(WithDriverManager(m)).GetUserMedia(context.Background(), DefaultConstraints())
	require.NoError(t, err)

	track := ms.GetVideoTracks()[0]
	ended := make(chan error, 1)
	track.OnEnded(func(err error) { ended <- err })

	require.NoError(t, track.Close())
	assert.Equal(t, driver.StateClosed, drivers[0].Status())

	select {
	case err := <-ended:
		assert.Equal(t, io.EOF, err)
	case <-time.After(waitTimeout):
		t.Fatal("OnEnded was not called")
	}

	_, _, err = track.Reader().Read()
	assert.Equal(t, io.EOF, err)
}

func TestMediaSourceWithDrivers(t *testing.T) {
	m, drivers := newTestManager(t,
		videotest.Config{Label: "front", FacingMode: []string{FacingModeUser}, Sizes: []image.Point{{X: 1280, Y: 720}}},
		videotest.Config{Label: "rear", FacingMode: []string{FacingModeEnvironment}, Sizes: []image.Point{{X: 320, Y: 240}}},
		videotest.Config{Label: "rear-wide", FacingMode: []string{FacingModeEnvironment}, Sizes: []image.Point{{X: 640, Y: 480}, {X: 320, Y: 240}}},
	)

	s := New(DefaultConstraints(),
		WithMediaDevices(NewMediaDevices(WithDriverManager(m))),
		WithMaxWidthDevice(true),
	)
	waitDone(t, s)
	defer stopStream(s)

	require.NoError(t, s.Err())
	assert.Equal(t, drivers[2].ID(), s.DeviceID())

	surface := s.Texture().Surface()
	assert.Equal(t, 640, surface.VideoWidth())
	assert.Equal(t, 480, surface.VideoHeight())

	assert.Eventually(t, func() bool {
		return s.Texture().Image() != nil
	}, waitTimeout, 5*time.Millisecond)
}

func TestCancelledContextAborts(t *testing.T) {
	m, _ := newTestManager(t, videotest.Config{FacingMode: []string{FacingModeEnvironment}})
	md := NewMediaDevices(WithDriverManager(m))

	infos, err := md.EnumerateDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, enumerateErr := md.EnumerateDevices(ctx)
	_, capabilitiesErr := infos[0].Capabilities(ctx)
	_, getUserMediaErr := md.GetUserMedia(ctx, DefaultConstraints())

	for name, err := range map[string]error{
		"EnumerateDevices": enumerateErr,
		"Capabilities":     capabilitiesErr,
		"GetUserMedia":     getUserMediaErr,
	} {
		assert.Equal(t, AbortError, errorEventFrom(err).Code, name)
		assert.True(t, errors.Is(err, context.Canceled), name)
	}
}

func TestGetUserMediaFacingModeSet(t *testing.T) {
	m, _ := newTestManager(t,
		videotest.Config{Label: "unknown"},
		videotest.Config{Label: "front", FacingMode: []string{FacingModeUser}},
	)
	md := NewMediaDevices(WithDriverManager(m))

	c := DefaultConstraints()
	c.Video.FacingMode = prop.StringOneOf{FacingModeUser, FacingModeEnvironment}
	ms, err := md.GetUserMedia(context.Background(), c)
	require.NoError(t, err)
	defer closeTracks(ms)
	assert.Equal(t, "front", ms.GetVideoTracks()[0].Label())

	c.Video.FacingMode = prop.StringOneOf{FacingModeEnvironment}
	_, err = md.GetUserMedia(context.Background(), c)
	var me *MediaError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, OverconstrainedError, me.Name)
	assert.Equal(t, "facingMode", me.Constraint)
}
