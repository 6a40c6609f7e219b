// Command mediasource-probe lists the capture devices of the host and starts
// a camera the same way a MediaSource would, optionally saving a snapshot.
package main

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pion/mediasource"
	"github.com/pion/mediasource/pkg/prop"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

var (
	flagList       bool
	flagMaxWidth   bool
	flagFacingMode string
	flagDeviceID   string
	flagWidth      int
	flagHeight     int
	flagTimeout    time.Duration
	flagSnapshot   string
	flagHelp       bool
)

func init() {
	flag.BoolVarP(&flagList, "list", "l", false, "List devices and their capabilities, then exit")
	flag.BoolVarP(&flagMaxWidth, "max-width", "m", false, "Pick the environment facing camera with the greatest width")
	flag.StringVarP(&flagFacingMode, "facing", "f", mediasource.FacingModeEnvironment, "Preferred facing mode, or a comma separated set of accepted modes")
	flag.StringVarP(&flagDeviceID, "device", "d", "", "Exact device id")
	flag.IntVarP(&flagWidth, "width", "x", 0, "Preferred width")
	flag.IntVarP(&flagHeight, "height", "y", 0, "Preferred height")
	flag.DurationVarP(&flagTimeout, "timeout", "t", 10*time.Second, "Give up waiting for the camera after this long")
	flag.StringVarP(&flagSnapshot, "snapshot", "o", "", "Write the first frame to this JPEG file")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
}

func main() {
	flag.Parse()
	if flagHelp {
		help()
		return
	}

	md := mediasource.NewMediaDevices()
	var err error
	if flagList {
		err = list(os.Stdout, md)
	} else {
		err = probe(os.Stdout, md)
	}
	if err != nil {
		failure.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func list(w io.Writer, md mediasource.MediaDevices) error {
	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()

	devices, err := md.EnumerateDevices(ctx)
	if err != nil {
		return errors.Wrap(err, "enumerate devices")
	}
	if len(devices) == 0 {
		warning.Fprintln(w, "no capture devices found")
		return nil
	}

	for _, d := range devices {
		heading.Fprintf(w, "%s\n", d.Label)
		fmt.Fprintf(w, "  id:     %s\n", d.DeviceID)
		fmt.Fprintf(w, "  kind:   %s\n", d.Kind)

		caps, err := d.Capabilities(ctx)
		if err != nil {
			warning.Fprintf(w, "  capabilities unavailable: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  facing: %v\n", caps.FacingMode)
		if caps.Width != nil && caps.Height != nil {
			fmt.Fprintf(w, "  width:  %d..%d\n", caps.Width.Min, caps.Width.Max)
			fmt.Fprintf(w, "  height: %d..%d\n", caps.Height.Min, caps.Height.Max)
		}
		if caps.FrameRate != nil {
			fmt.Fprintf(w, "  fps:    %.1f..%.1f\n", caps.FrameRate.Min, caps.FrameRate.Max)
		}
	}
	return nil
}

func constraints() mediasource.MediaStreamConstraints {
	c := prop.MediaConstraints{}
	if flagDeviceID != "" {
		c.DeviceID = prop.StringExact(flagDeviceID)
	}
	if modes := strings.Split(flagFacingMode, ","); len(modes) > 1 {
		c.FacingMode = prop.StringOneOf(modes)
	} else if flagFacingMode != "" {
		c.FacingMode = prop.String(flagFacingMode)
	}
	if flagWidth > 0 {
		c.Width = prop.Int(flagWidth)
	}
	if flagHeight > 0 {
		c.Height = prop.Int(flagHeight)
	}
	return mediasource.MediaStreamConstraints{
		Video: &mediasource.MediaTrackConstraints{MediaConstraints: c},
	}
}

func probe(w io.Writer, md mediasource.MediaDevices) error {
	s := mediasource.New(constraints(),
		mediasource.WithMediaDevices(md),
		mediasource.WithMaxWidthDevice(flagMaxWidth),
	)
	defer s.Dispose()

	select {
	case <-s.Done():
	case <-time.After(flagTimeout):
		return errors.Errorf("camera did not start within %v", flagTimeout)
	}
	if err := s.Err(); err != nil {
		return err
	}

	surface := s.Texture().Surface()
	success.Fprintf(w, "started %s at %dx%d\n", s.DeviceID(), surface.VideoWidth(), surface.VideoHeight())
	defer closeStream(surface)

	if flagSnapshot == "" {
		return nil
	}
	return snapshot(s.Texture(), flagSnapshot)
}

func snapshot(tex *mediasource.VideoTexture, path string) error {
	deadline := time.Now().Add(flagTimeout)
	for tex.Image() == nil {
		if time.Now().After(deadline) {
			return errors.New("no frame presented")
		}
		time.Sleep(10 * time.Millisecond)
	}

	surface := tex.Surface()
	dst := image.NewRGBA(image.Rect(0, 0, surface.VideoWidth(), surface.VideoHeight()))
	if !tex.Draw(dst, dst.Bounds()) {
		return errors.New("texture has no frame")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := jpeg.Encode(f, dst, nil); err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

func closeStream(surface *mediasource.VideoSurface) {
	ms := surface.SrcObject()
	if ms == nil {
		return
	}
	for _, t := range ms.GetTracks() {
		t.Close()
	}
}
