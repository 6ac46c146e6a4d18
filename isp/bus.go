package isp

import "lautenbacher.net/avrisp/hal"

// defaultHoldMicros is the SCK phase length when the target clock is
// unknown. It covers two cycles of targets clocked down to 400kHz.
const defaultHoldMicros = 5

// Bus moves bytes and instruction frames over a link. It has no notion of
// sessions; Programmer adds that on top.
type Bus struct {
	link hal.Link
	hold uint32
}

// NewBus creates a Bus holding each SCK phase for at least two cycles of a
// target running at targetClockHz. Zero or negative selects the default.
func NewBus(link hal.Link, targetClockHz int) *Bus {
	return &Bus{link: link, hold: holdMicros(targetClockHz)}
}

func holdMicros(targetClockHz int) uint32 {
	if targetClockHz <= 0 {
		return defaultHoldMicros
	}
	us := (2_000_000 + targetClockHz - 1) / targetClockHz
	if us < 1 {
		us = 1
	}
	return uint32(us)
}

// Hold returns the SCK phase length in microseconds.
func (b *Bus) Hold() uint32 {
	return b.hold
}

// delay2Cycles blocks for at least two target clock cycles.
func (b *Bus) delay2Cycles() {
	b.link.DelayMicroseconds(b.hold)
}

// Transfer clocks one byte out on MOSI, most significant bit first, and
// returns the byte sampled on MISO in the same bit positions.
func (b *Bus) Transfer(value byte) byte {
	var in byte
	for bit := 7; bit >= 0; bit-- {
		mask := byte(1) << bit
		if value&mask != 0 {
			b.link.DataOutHigh()
		} else {
			b.link.DataOutLow()
		}

		if b.link.DataIn() {
			in |= mask
		}

		b.link.ClockHigh()
		b.delay2Cycles()
		b.link.ClockLow()
		b.delay2Cycles()
	}
	return in
}

// SendInstruction transfers the four bytes of a frame and returns the byte
// received during the fourth.
func (b *Bus) SendInstruction(b1, b2, b3, b4 byte) byte {
	b.Transfer(b1)
	b.Transfer(b2)
	b.Transfer(b3)
	return b.Transfer(b4)
}

// Send is SendInstruction for a prepared frame.
func (b *Bus) Send(inst Instruction) byte {
	return b.SendInstruction(inst[0], inst[1], inst[2], inst[3])
}
