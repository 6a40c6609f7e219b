package video

import (
	"image"
	"time"

	"github.com/pion/mediasource/pkg/prop"
)

// DetectChanges will detect frame and video property changes. For video property detection,
// since it's time related, interval will be used to determine the sample rate.
// onChange is called before the frame that caused the change is returned.
func DetectChanges(interval time.Duration, onChange func(prop.Media)) TransformFunc {
	return func(r Reader) Reader {
		var currentProp prop.Media
		var lastTaken time.Time
		var frames uint
		return ReaderFunc(func() (image.Image, func(), error) {
			var dirty bool

			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}

			bounds := img.Bounds()
			if currentProp.Width != bounds.Dx() {
				currentProp.Width = bounds.Dx()
				dirty = true
			}

			if currentProp.Height != bounds.Dy() {
				currentProp.Height = bounds.Dy()
				dirty = true
			}

			now := time.Now()
			if lastTaken.IsZero() {
				lastTaken = now
			} else if elapsed := now.Sub(lastTaken); elapsed >= interval {
				currentProp.FrameRate = float32(float64(frames) / elapsed.Seconds())
				frames = 0
				lastTaken = now
				dirty = true
			}

			if dirty {
				onChange(currentProp)
			}

			frames++
			return img, release, nil
		})
	}
}
