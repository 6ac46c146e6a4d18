package isp

import "context"

// ChipErase erases flash and EEPROM and clears the lock bits, then waits
// for the target to finish.
func (p *Programmer) ChipErase(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("chip erase"); err != nil {
		return err
	}
	p.bus.SendInstruction(opWriteCommand, subChipErase, 0x00, 0x00)
	p.logger.Info("Chip erase issued")
	return p.waitReady(ctx, "chip erase")
}
