package hal

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/avrisp/config"
)

// RPIOLink drives the programming link through /dev/gpiomem using go-rpio.
// Until Init succeeded the setters do nothing and DataIn reads low, go-rpio
// has no memory mapping to write to before that.
type RPIOLink struct {
	pins    config.PinConfig
	clock   rpio.Pin
	dataOut rpio.Pin
	dataIn  rpio.Pin
	reset   rpio.Pin
	opened  bool
}

func NewRPIOLink(pins config.PinConfig) *RPIOLink {
	return &RPIOLink{
		pins:    pins,
		clock:   rpio.Pin(pins.Clock),
		dataOut: rpio.Pin(pins.DataOut),
		dataIn:  rpio.Pin(pins.DataIn),
		reset:   rpio.Pin(pins.Reset),
	}
}

func (l *RPIOLink) Init() error {
	if !l.opened {
		slog.Info("Initialise GPIO (rpio)...", "pins", l.pins)
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("failed to open rpio: %w", err)
		}
		l.opened = true
	}
	// latch the inactive level first so RESET does not glitch low
	l.reset.High()
	l.reset.Output()
	l.clock.Output()
	l.clock.Low()
	l.dataOut.Output()
	l.dataOut.Low()
	l.dataIn.Input()
	l.dataIn.PullOff()
	return nil
}

func (l *RPIOLink) Close() error {
	if !l.opened {
		return nil
	}
	// leave the target running
	l.reset.High()
	l.opened = false
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close rpio: %w", err)
	}
	return nil
}

func (l *RPIOLink) ClockHigh()   { l.write(l.clock, rpio.High) }
func (l *RPIOLink) ClockLow()    { l.write(l.clock, rpio.Low) }
func (l *RPIOLink) DataOutHigh() { l.write(l.dataOut, rpio.High) }
func (l *RPIOLink) DataOutLow()  { l.write(l.dataOut, rpio.Low) }
func (l *RPIOLink) ResetHigh()   { l.write(l.reset, rpio.High) }
func (l *RPIOLink) ResetLow()    { l.write(l.reset, rpio.Low) }

func (l *RPIOLink) DataIn() bool {
	return l.opened && l.dataIn.Read() == rpio.High
}

func (l *RPIOLink) write(pin rpio.Pin, state rpio.State) {
	if l.opened {
		pin.Write(state)
	}
}

func (l *RPIOLink) DelayMicroseconds(n uint32) { Delay(n) }
