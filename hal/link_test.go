package hal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/avrisp/config"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"
)

type nopLink struct{ id int }

func (*nopLink) Init() error                { return nil }
func (*nopLink) ClockHigh()                 {}
func (*nopLink) ClockLow()                  {}
func (*nopLink) DataOutHigh()               {}
func (*nopLink) DataOutLow()                {}
func (*nopLink) DataIn() bool               { return false }
func (*nopLink) ResetHigh()                 {}
func (*nopLink) ResetLow()                  {}
func (*nopLink) DelayMicroseconds(n uint32) {}

// valueLink is an uncomparable Link implementation.
type valueLink struct {
	*nopLink
	history []int
}

func TestClaim(t *testing.T) {
	a := &nopLink{id: 1}
	b := &nopLink{id: 2}

	require.NoError(t, Claim(a))
	t.Cleanup(func() { Release(a); Release(b) })

	assert.ErrorIs(t, Claim(a), ErrLinkClaimed, "second claim on the same link must fail")
	assert.NoError(t, Claim(b), "distinct links are independent")

	Release(a)
	assert.NoError(t, Claim(a), "released link can be claimed again")
}

func TestClaim_Invalid(t *testing.T) {
	assert.Error(t, Claim(nil))
	v := valueLink{nopLink: &nopLink{}}
	assert.Error(t, Claim(v), "uncomparable links cannot be tracked")
	Release(nil)
	Release(v)
}

func TestDelay(t *testing.T) {
	for _, us := range []uint32{0, 5, 250, 1500} {
		start := time.Now()
		Delay(us)
		assert.GreaterOrEqual(t, time.Since(start), time.Duration(us)*time.Microsecond)
	}
}

func TestOpen(t *testing.T) {
	pins := config.PinConfig{Clock: 11, DataOut: 10, DataIn: 9, Reset: 8}

	link, err := Open(config.LinkConfig{Backend: "rpio", Pins: pins})
	require.NoError(t, err)
	assert.IsType(t, &RPIOLink{}, link)

	link, err = Open(config.LinkConfig{Backend: "Periph.io", Pins: pins})
	require.NoError(t, err)
	assert.IsType(t, &PeriphLink{}, link)

	_, err = Open(config.LinkConfig{Backend: "ftdi", Pins: pins})
	assert.ErrorContains(t, err, "unknown link backend")
}

func TestCloseWithoutInit(t *testing.T) {
	pins := config.PinConfig{Clock: 11, DataOut: 10, DataIn: 9, Reset: 8}
	assert.NoError(t, NewRPIOLink(pins).Close())
	assert.NoError(t, NewPeriphLink(pins).Close())
}

func TestRPIOLink_SettersBeforeInit(t *testing.T) {
	link := NewRPIOLink(config.PinConfig{Clock: 11, DataOut: 10, DataIn: 9, Reset: 8})
	assert.NotPanics(t, func() {
		link.ResetHigh()
		link.ResetLow()
		link.ClockHigh()
		link.ClockLow()
		link.DataOutHigh()
		link.DataOutLow()
		assert.False(t, link.DataIn())
	})
	assert.NoError(t, link.Close())
}

// testPin registers a fake periph.io pin named GPIO<number>.
func testPin(t *testing.T, number int) *gpiotest.Pin {
	t.Helper()
	name := fmt.Sprintf("GPIO%d", number)
	if existing := gpioreg.ByName(name); existing != nil {
		pin, ok := existing.(*gpiotest.Pin)
		if !ok {
			t.Skipf("%s is a real pin on this host", name)
		}
		return pin
	}
	pin := &gpiotest.Pin{N: name, Num: number}
	require.NoError(t, gpioreg.Register(pin))
	return pin
}

func TestPeriphLink_PartialLookup(t *testing.T) {
	if _, err := host.Init(); err != nil {
		t.Skipf("periph.io host unavailable: %v", err)
	}
	pins := config.PinConfig{Clock: 9901, DataOut: 9902, DataIn: 9903, Reset: 9904}
	clock := testPin(t, pins.Clock)
	link := NewPeriphLink(pins)

	assert.NotPanics(t, func() {
		link.ResetHigh()
		link.ClockHigh()
		assert.False(t, link.DataIn())
	}, "setters before Init")

	assert.ErrorContains(t, link.Init(), "failed to find pin 9902")
	require.NotPanics(t, func() {
		assert.ErrorContains(t, link.Init(), "failed to find pin 9902", "a retried Init looks up all pins again")
	})
	require.NotPanics(t, func() { assert.NoError(t, link.Close()) })

	testPin(t, pins.DataOut)
	testPin(t, pins.DataIn)
	reset := testPin(t, pins.Reset)
	require.NoError(t, link.Init())

	link.ClockHigh()
	assert.Equal(t, gpio.High, clock.Read())
	link.ResetLow()
	assert.Equal(t, gpio.Low, reset.Read())

	require.NoError(t, link.Close())
	assert.Equal(t, gpio.High, reset.Read(), "Close leaves the target running")
}
