package hal

import (
	"fmt"
	"strings"

	"lautenbacher.net/avrisp/config"
)

// Open builds the link backend selected in the configuration. The pins are
// not touched before Init is called.
func Open(conf config.LinkConfig) (Link, error) {
	switch strings.ToLower(conf.Backend) {
	case config.BackendRPIO:
		return NewRPIOLink(conf.Pins), nil
	case config.BackendPeriph:
		return NewPeriphLink(conf.Pins), nil
	default:
		return nil, fmt.Errorf("unknown link backend: %s", conf.Backend)
	}
}
