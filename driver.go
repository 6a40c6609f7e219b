package mediasource

import (
	"github.com/pion/mediasource/internal/logging"
	"github.com/pion/mediasource/pkg/driver"
	// Cameras found on the host are registered to driver.GetManager().
	_ "github.com/pion/mediasource/pkg/driver/camera"
)

var loggerFactory = logging.Factory()

// RegisterDriverAdapter allows user space level of driver registration
func RegisterDriverAdapter(a driver.Adapter, info driver.Info) error {
	_, err := driver.GetManager().Register(a, info)
	return err
}
