// Package simulator provides an AVR target that speaks the serial
// programming protocol on a simulated 4-wire link.
//
// Target implements hal.Link. It samples MOSI on the rising SCK edge and
// presents MISO before it, as the device does in SPI mode 0. Delays advance a
// virtual clock instead of sleeping, so a full handshake with its 20ms settle
// times runs in microseconds of real time.
package simulator

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"lautenbacher.net/avrisp/hal"
)

var _ hal.Link = (*Target)(nil)

const (
	// settleTime is the minimum time between reset and Programming Enable.
	settleTime = 20 * time.Millisecond

	defaultTraceSize = 1024
)

// Record is one instruction frame seen on the link.
type Record struct {
	Instruction [4]byte
	Response    byte
	At          time.Duration
	Engaged     bool
}

// Target is a simulated AVR. The zero value is not usable, call New.
type Target struct {
	mu   sync.Mutex
	opts options

	clock bool
	mosi  bool
	reset bool

	shift    byte
	bits     int
	frame    []byte
	out      byte
	accepted bool

	engaged     bool
	attempts    int
	resetPulses int
	inits       int
	resetAt     time.Duration
	now         time.Duration
	busyUntil   time.Duration
	violations  int

	flash      []byte
	pageBuffer []byte
	extended   byte
	fuses      [3]byte
	lock       byte

	trace     deque.Deque[Record]
	pollTimes []time.Duration
}

// New creates a target, by default an ATmega328P that accepts the first
// Programming Enable.
func New(opts ...Option) *Target {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	t := &Target{
		opts:       o,
		reset:      true,
		frame:      make([]byte, 0, 4),
		flash:      filled(o.flashSize, 0xFF),
		pageBuffer: filled(o.pageSize, 0xFF),
		fuses:      o.fuses,
		lock:       0xFF,
	}
	return t
}

func filled(n int, value byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = value
	}
	return b
}

func (t *Target) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inits++
	return t.opts.initErr
}

func (t *Target) ClockHigh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clock {
		return
	}
	t.clock = true
	if t.reset {
		// running, not listening on the programming interface
		return
	}
	t.shift <<= 1
	if t.mosi {
		t.shift |= 1
	}
	t.bits++
	if t.bits == 8 {
		t.byteDone(t.shift)
		t.bits = 0
		t.shift = 0
	}
}

func (t *Target) ClockLow() {
	t.mu.Lock()
	t.clock = false
	t.mu.Unlock()
}

func (t *Target) DataOutHigh() {
	t.mu.Lock()
	t.mosi = true
	t.mu.Unlock()
}

func (t *Target) DataOutLow() {
	t.mu.Lock()
	t.mosi = false
	t.mu.Unlock()
}

func (t *Target) DataIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reset {
		return false
	}
	return t.out&(0x80>>t.bits) != 0
}

func (t *Target) ResetHigh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reset {
		return
	}
	t.reset = true
	t.engaged = false
	t.resync()
}

func (t *Target) ResetLow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.reset {
		return
	}
	t.reset = false
	t.resetPulses++
	t.resetAt = t.now
	t.extended = 0
	t.resync()
}

func (t *Target) DelayMicroseconds(n uint32) {
	t.mu.Lock()
	t.now += time.Duration(n) * time.Microsecond
	t.mu.Unlock()
}

func (t *Target) resync() {
	t.bits = 0
	t.shift = 0
	t.frame = t.frame[:0]
	t.out = 0
	t.accepted = false
}

// byteDone is called for every complete byte and prepares the byte the
// target shifts out next.
func (t *Target) byteDone(b byte) {
	t.frame = append(t.frame, b)
	if len(t.frame) < 4 {
		t.out = t.respond()
		return
	}

	var inst [4]byte
	copy(inst[:], t.frame)
	response := t.out
	if t.engaged {
		t.execute(inst)
	} else if t.accepted {
		t.engaged = true
	}
	t.record(Record{Instruction: inst, Response: response, At: t.now, Engaged: t.engaged})
	t.frame = t.frame[:0]
	t.accepted = false
	t.out = 0
}

// respond computes the byte sent while the next frame byte arrives. The
// device echoes the previous byte, the fourth byte carries read results.
func (t *Target) respond() byte {
	switch len(t.frame) {
	case 1:
		if !t.engaged {
			return 0
		}
		return t.frame[0]
	case 2:
		if t.engaged {
			return t.frame[1]
		}
		if t.frame[0] == opProgrammingEnable && t.frame[1] == opEnableEcho {
			t.attempts++
			t.accepted = t.acceptEnable()
			if t.accepted {
				return opEnableEcho
			}
		}
		return 0
	case 3:
		if !t.engaged {
			return 0
		}
		return t.read(t.frame[0], t.frame[1], t.frame[2])
	}
	return 0
}

func (t *Target) acceptEnable() bool {
	if t.opts.enableOnAttempt <= 0 || t.attempts < t.opts.enableOnAttempt {
		return false
	}
	return t.now-t.resetAt >= settleTime
}

func (t *Target) busy() bool {
	return t.opts.alwaysBusy || t.now < t.busyUntil
}

func (t *Target) record(r Record) {
	t.trace.PushBack(r)
	for t.trace.Len() > t.opts.traceSize {
		t.trace.PopFront()
	}
}
