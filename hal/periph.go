package hal

import (
	"fmt"
	"log/slog"

	"lautenbacher.net/avrisp/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphLink drives the programming link through periph.io. Pin level
// errors are logged, not returned, as the Link setters have no error path.
// Before Init succeeded the setters do nothing and DataIn reads low.
type PeriphLink struct {
	pins    config.PinConfig
	clock   gpio.PinIO
	dataOut gpio.PinIO
	dataIn  gpio.PinIO
	reset   gpio.PinIO
}

func NewPeriphLink(pins config.PinConfig) *PeriphLink {
	return &PeriphLink{pins: pins}
}

func (l *PeriphLink) Init() error {
	if l.clock == nil {
		slog.Info("Initialise GPIO (periph.io)...", "pins", l.pins)
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to init periph: %w", err)
		}
		// all four or none, a partial lookup must not survive a failed Init
		var pins [4]gpio.PinIO
		for i, number := range []int{l.pins.Clock, l.pins.DataOut, l.pins.DataIn, l.pins.Reset} {
			pin, err := lookupPin(number)
			if err != nil {
				return err
			}
			pins[i] = pin
		}
		l.clock, l.dataOut, l.dataIn, l.reset = pins[0], pins[1], pins[2], pins[3]
	}
	if err := l.clock.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set clock pin %d to output: %w", l.pins.Clock, err)
	}
	if err := l.dataOut.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set data-out pin %d to output: %w", l.pins.DataOut, err)
	}
	// keep the current reset level until the session drives it
	if err := l.reset.Out(l.reset.Read()); err != nil {
		return fmt.Errorf("failed to set reset pin %d to output: %w", l.pins.Reset, err)
	}
	if err := l.dataIn.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("failed to set data-in pin %d to input: %w", l.pins.DataIn, err)
	}
	return nil
}

func (l *PeriphLink) Close() error {
	if l.clock == nil {
		return nil
	}
	l.ResetHigh()
	for _, pin := range []gpio.PinIO{l.clock, l.dataOut, l.dataIn, l.reset} {
		if pin == nil {
			continue
		}
		if err := pin.Halt(); err != nil {
			slog.Error("Error halting pin", "pin", pin.Name(), "error", err)
		}
	}
	l.clock, l.dataOut, l.dataIn, l.reset = nil, nil, nil, nil
	return nil
}

func (l *PeriphLink) ClockHigh()   { out(l.clock, gpio.High) }
func (l *PeriphLink) ClockLow()    { out(l.clock, gpio.Low) }
func (l *PeriphLink) DataOutHigh() { out(l.dataOut, gpio.High) }
func (l *PeriphLink) DataOutLow()  { out(l.dataOut, gpio.Low) }
func (l *PeriphLink) DataIn() bool { return l.dataIn != nil && l.dataIn.Read() == gpio.High }
func (l *PeriphLink) ResetHigh()   { out(l.reset, gpio.High) }
func (l *PeriphLink) ResetLow()    { out(l.reset, gpio.Low) }

func (l *PeriphLink) DelayMicroseconds(n uint32) { Delay(n) }

func lookupPin(number int) (gpio.PinIO, error) {
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", number))
	if pin == nil {
		return nil, fmt.Errorf("failed to find pin %d", number)
	}
	return pin, nil
}

// out drives pin, a link that was never initialised has no pins to drive.
func out(pin gpio.PinIO, level gpio.Level) {
	if pin == nil {
		return
	}
	if err := pin.Out(level); err != nil {
		slog.Error("gpio write failed", "pin", pin.Name(), "error", err)
	}
}
