package simulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/avrisp/isp"
	"lautenbacher.net/avrisp/simulator"
)

// pulseReset puts the target in programming reset and returns a bus on it.
func pulseReset(target *simulator.Target) *isp.Bus {
	target.ClockLow()
	target.ResetHigh()
	target.ResetLow()
	return isp.NewBus(target, 0)
}

func engage(t *testing.T, target *simulator.Target) *isp.Bus {
	t.Helper()
	bus := pulseReset(target)
	target.DelayMicroseconds(20_000)
	bus.Transfer(0xAC)
	bus.Transfer(0x53)
	echo := bus.Transfer(0x00)
	bus.Transfer(0x00)
	require.Equal(t, byte(0x53), echo)
	require.True(t, target.Engaged())
	return bus
}

func TestEnable_RequiresSettle(t *testing.T) {
	target := simulator.New()
	bus := pulseReset(target)

	bus.Transfer(0xAC)
	bus.Transfer(0x53)
	assert.NotEqual(t, byte(0x53), bus.Transfer(0x00), "enable before the 20ms settle")
	bus.Transfer(0x00)
	assert.False(t, target.Engaged())

	target.DelayMicroseconds(20_000)
	bus.Transfer(0xAC)
	bus.Transfer(0x53)
	assert.Equal(t, byte(0x53), bus.Transfer(0x00))
	bus.Transfer(0x00)
	assert.True(t, target.Engaged())
	assert.Equal(t, 2, target.EnableAttempts())
	assert.Equal(t, 1, target.ResetPulses())
}

func TestEnable_OnAttempt(t *testing.T) {
	target := simulator.New(simulator.WithEnableOnAttempt(3))
	for attempt := 1; attempt <= 3; attempt++ {
		bus := pulseReset(target)
		target.DelayMicroseconds(20_000)
		bus.Transfer(0xAC)
		bus.Transfer(0x53)
		echo := bus.Transfer(0x00)
		bus.Transfer(0x00)
		assert.Equal(t, attempt == 3, echo == 0x53, "attempt %d", attempt)
	}
	assert.True(t, target.Engaged())
}

func TestEngaged_EchoesPreviousByte(t *testing.T) {
	target := simulator.New()
	bus := engage(t, target)

	assert.Equal(t, byte(0x00), bus.Transfer(0x30))
	assert.Equal(t, byte(0x30), bus.Transfer(0x00))
	assert.Equal(t, byte(0x00), bus.Transfer(0x01))
	assert.Equal(t, byte(0x95), bus.Transfer(0x00), "signature byte 1")
}

func TestRunning_IgnoresClock(t *testing.T) {
	target := simulator.New()
	bus := isp.NewBus(target, 0)

	assert.False(t, target.InReset())
	for _, b := range []byte{0xAC, 0x53, 0x00, 0x00} {
		assert.Equal(t, byte(0x00), bus.Transfer(b))
	}
	assert.Empty(t, target.Trace())
	assert.Zero(t, target.EnableAttempts())
}

func TestResetHigh_Disengages(t *testing.T) {
	target := simulator.New()
	engage(t, target)

	target.ResetHigh()
	assert.False(t, target.Engaged())
	assert.False(t, target.InReset())
}

func TestTrace_Bounded(t *testing.T) {
	target := simulator.New(simulator.WithTraceSize(3))
	bus := engage(t, target)

	for i := byte(0); i < 5; i++ {
		bus.SendInstruction(0x30, 0x00, i, 0x00)
	}
	trace := target.Trace()
	require.Len(t, trace, 3)
	for i, r := range trace {
		assert.Equal(t, [4]byte{0x30, 0x00, byte(i + 2), 0x00}, r.Instruction)
	}
	assert.Equal(t, byte(0xFF), trace[2].Response, "signature index 4 does not exist")
	assert.True(t, trace[0].At < trace[2].At)
}

func TestPageWrite_ClearsBitsOnly(t *testing.T) {
	target := simulator.New(simulator.WithBusyTimes(time.Millisecond, 2*time.Millisecond, time.Millisecond))
	target.LoadFlash(0, []byte{0x0F, 0xFF})
	bus := engage(t, target)

	bus.SendInstruction(0x40, 0x00, 0x00, 0xF0)
	bus.SendInstruction(0x4C, 0x00, 0x00, 0x00)
	assert.Equal(t, []byte{0x00, 0xFF}, target.Flash()[:2])

	assert.Equal(t, byte(0x01), bus.SendInstruction(0xF0, 0x00, 0x00, 0x00)&0x01, "busy after page write")
	bus.SendInstruction(0x20, 0x00, 0x00, 0x00)
	assert.Equal(t, 1, target.BusyViolations())

	target.DelayMicroseconds(2_000)
	assert.Equal(t, byte(0x00), bus.SendInstruction(0xF0, 0x00, 0x00, 0x00)&0x01)
	assert.Len(t, target.PollTimes(), 2)
}

func TestChipErase_ResetsFlashAndLock(t *testing.T) {
	target := simulator.New()
	target.LoadFlash(0x10, []byte{0x00})
	bus := engage(t, target)

	bus.SendInstruction(0xAC, 0xE0, 0x00, 0xFC)
	target.DelayMicroseconds(10_000)
	require.Equal(t, byte(0xFC), target.LockBits())

	bus.SendInstruction(0xAC, 0x80, 0x00, 0x00)
	assert.Equal(t, byte(0xFF), target.Flash()[0x10])
	assert.Equal(t, byte(0xFF), target.LockBits())
}

func TestInitError(t *testing.T) {
	target := simulator.New(simulator.WithInitError(assert.AnError))
	assert.ErrorIs(t, target.Init(), assert.AnError)
	assert.Equal(t, 1, target.Inits())
}
