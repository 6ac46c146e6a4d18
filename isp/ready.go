package isp

import "context"

// pollIntervalMicros is the wait between two RDY/BSY polls.
const pollIntervalMicros = 1_000

// Poll reads the RDY/BSY flag. ready is true when the target accepts the
// next instruction.
func (p *Programmer) Poll() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("poll"); err != nil {
		return false, err
	}
	return p.poll(), nil
}

func (p *Programmer) poll() bool {
	return p.bus.SendInstruction(opPollReady, 0x00, 0x00, 0x00)&0x01 == 0
}

// WaitReady polls until the target reports ready, pausing 1ms between
// polls. Without a deadline on ctx it waits forever on a target that stays
// busy.
func (p *Programmer) WaitReady(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("wait ready"); err != nil {
		return err
	}
	return p.waitReady(ctx, "wait ready")
}

func (p *Programmer) waitReady(ctx context.Context, op string) error {
	for polls := 1; ; polls++ {
		if p.poll() {
			if polls > 1 {
				p.logger.Debug("Target ready", "op", op, "polls", polls)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return &TimeoutError{Op: op, Err: err}
		}
		p.link.DelayMicroseconds(pollIntervalMicros)
	}
}
