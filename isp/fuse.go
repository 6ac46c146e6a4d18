package isp

import (
	"context"
	"fmt"
)

// FuseBits holds the three fuse bytes. Their meaning is device specific.
type FuseBits struct {
	Low      byte
	High     byte
	Extended byte
}

func (f FuseBits) String() string {
	return fmt.Sprintf("L:0x%02X H:0x%02X E:0x%02X", f.Low, f.High, f.Extended)
}

func (p *Programmer) ReadLockBits() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read lock bits"); err != nil {
		return 0, err
	}
	return p.bus.SendInstruction(opReadLockBits, 0x00, 0x00, 0x00), nil
}

// WriteLockBits programs the lock byte and waits until the target is ready.
func (p *Programmer) WriteLockBits(ctx context.Context, lock byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("write lock bits"); err != nil {
		return err
	}
	p.bus.SendInstruction(opWriteCommand, subWriteLockBits, 0x00, lock)
	p.logger.Info("Lock bits written", "lock", fmt.Sprintf("0x%02X", lock))
	return p.waitReady(ctx, "write lock bits")
}

func (p *Programmer) ReadFuseBits() (FuseBits, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read fuse bits"); err != nil {
		return FuseBits{}, err
	}
	return FuseBits{
		Low:      p.bus.SendInstruction(opReadFuseLow, 0x00, 0x00, 0x00),
		High:     p.bus.SendInstruction(opReadFuseHigh, subReadFuseUpper, 0x00, 0x00),
		Extended: p.bus.SendInstruction(opReadFuseExtended, subReadFuseUpper, 0x00, 0x00),
	}, nil
}

// WriteFuseBits writes low, high and extended fuse in that order, waiting
// for the target after each one. A cancelled wait stops the sequence.
func (p *Programmer) WriteFuseBits(ctx context.Context, fuses FuseBits) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("write fuse bits"); err != nil {
		return err
	}
	writes := []struct {
		name  string
		sub   byte
		value byte
	}{
		{"low", subWriteFuseLow, fuses.Low},
		{"high", subWriteFuseHigh, fuses.High},
		{"extended", subWriteFuseExtended, fuses.Extended},
	}
	for _, w := range writes {
		p.bus.SendInstruction(opWriteCommand, w.sub, 0x00, w.value)
		if err := p.waitReady(ctx, "write "+w.name+" fuse"); err != nil {
			return err
		}
	}
	p.logger.Info("Fuse bits written", "fuses", fuses.String())
	return nil
}
