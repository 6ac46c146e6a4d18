package isp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lautenbacher.net/avrisp/hal"
)

const (
	// EnableAttempts bounds the Programming Enable handshake.
	EnableAttempts = 16
	// settleMicros is the wait after the reset pulse before the target
	// accepts Programming Enable.
	settleMicros = 20_000
)

// State of a programming session.
type State int

const (
	Idle State = iota
	Attempting
	Engaged
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attempting:
		return "attempting"
	case Engaged:
		return "engaged"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Programmer drives one target over one link. The link is claimed for the
// lifetime of the Programmer, so a second Programmer on the same link cannot
// be created until Close is called. Calls are serialised.
type Programmer struct {
	mu     sync.Mutex
	link   hal.Link
	bus    *Bus
	config Config
	logger *slog.Logger
	state  State
	// linkReady is set once Init succeeded, the pins may not be driven
	// before that
	linkReady bool
	// extended address the target currently holds, valid while engaged
	extended byte
}

// New claims link and creates a Programmer on it.
func New(link hal.Link, opts ...Option) (*Programmer, error) {
	if link == nil {
		return nil, fmt.Errorf("link cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := hal.Claim(link); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Programmer{
		link:   link,
		bus:    NewBus(link, cfg.TargetClockHz),
		config: cfg,
		logger: logger,
	}, nil
}

// Close ends a running session, releases the link claim and closes the
// link when it holds platform resources.
func (p *Programmer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Idle {
		p.end()
	}
	hal.Release(p.link)
	p.linkReady = false
	if closer, ok := p.link.(hal.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (p *Programmer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Begin puts the target into serial programming mode. Up to EnableAttempts
// times it pulses RESET, waits for the target to settle and sends
// Programming Enable, stopping at the first attempt whose third byte is
// echoed. On failure RESET is released and a *HandshakeError is returned.
// ctx is checked between attempts.
func (p *Programmer) Begin(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Engaged || p.state == Attempting {
		return ErrSessionActive
	}
	p.state = Attempting

	if err := p.link.Init(); err != nil {
		p.state = Failed
		return fmt.Errorf("init link: %w", err)
	}
	p.linkReady = true

	var echo byte
	for attempt := 1; attempt <= EnableAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			p.disable()
			p.state = Failed
			return &TimeoutError{Op: "begin", Err: err}
		}

		p.link.ClockLow()

		p.link.ResetHigh()
		p.bus.delay2Cycles()
		p.link.ResetLow()

		p.link.DelayMicroseconds(settleMicros)

		p.bus.Transfer(opProgrammingEnable)
		p.bus.Transfer(opEnableEcho)
		echo = p.bus.Transfer(0x00)
		p.bus.Transfer(0x00)

		if echo == opEnableEcho {
			p.state = Engaged
			p.extended = 0
			p.logger.Info("Target in programming mode", "attempt", attempt)
			return nil
		}
		p.logger.Debug("Programming enable not echoed", "attempt", attempt, "echo", fmt.Sprintf("0x%02X", echo))
	}

	p.disable()
	p.state = Failed
	p.logger.Warn("Target did not enter programming mode", "attempts", EnableAttempts)
	return &HandshakeError{Attempts: EnableAttempts, LastEcho: echo}
}

// End releases RESET so the target runs its program again.
func (p *Programmer) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.end()
	return nil
}

func (p *Programmer) end() {
	p.disable()
	if p.state == Engaged {
		p.logger.Info("Target released from programming mode")
	}
	p.state = Idle
}

func (p *Programmer) disable() {
	if !p.linkReady {
		return
	}
	p.link.ResetHigh()
}

// requireEngaged must be called with p.mu held.
func (p *Programmer) requireEngaged(op string) error {
	if p.state != Engaged {
		return fmt.Errorf("%s: %w (state %s)", op, ErrNotEngaged, p.state)
	}
	return nil
}

// SendInstruction sends a raw frame and returns the fourth response byte.
// It is meant for instructions this package has no method for.
func (p *Programmer) SendInstruction(b1, b2, b3, b4 byte) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("send instruction"); err != nil {
		return 0, err
	}
	return p.bus.SendInstruction(b1, b2, b3, b4), nil
}
