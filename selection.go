package mediasource

import (
	"context"

	"github.com/pion/logging"
)

// selectMaxWidthDevice picks the environment facing video input with the
// greatest maximum width. On ties the first device enumerated wins. Devices
// whose capabilities can't be queried are skipped.
func selectMaxWidthDevice(ctx context.Context, devices []MediaDeviceInfo, log logging.LeveledLogger) (string, bool) {
	var deviceID string
	var found bool
	maxWidth := 0

	for _, d := range devices {
		if d.Kind != VideoInput {
			continue
		}
		log.Debugf("media device %s: label=%q type=%s", d.DeviceID, d.Label, d.DeviceType)

		caps, err := d.Capabilities(ctx)
		if err != nil {
			log.Warnf("skipping %s, capabilities unavailable: %v", d.DeviceID, err)
			continue
		}
		log.Debugf("capabilities of %s: facingMode=%v width=%v", d.DeviceID, caps.FacingMode, caps.Width)

		if !caps.HasFacingMode(FacingModeEnvironment) || caps.Width == nil {
			continue
		}
		if caps.Width.Max > maxWidth {
			log.Debugf("%s is the best so far with max width %d", d.DeviceID, caps.Width.Max)
			maxWidth = caps.Width.Max
			deviceID = d.DeviceID
			found = true
		}
	}

	return deviceID, found
}
