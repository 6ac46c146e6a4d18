package isp

import (
	"context"
	"fmt"
)

// WordAddress converts a byte address to a program memory word address.
func WordAddress(address uint32) uint32 {
	return address >> 1
}

// ByteSelector is 0 for the low and 1 for the high byte of a word.
func ByteSelector(address uint32) byte {
	return byte(address & 0x01)
}

// splitWord returns bits 15..8 and 7..0 of a word address. Bits above 15
// are selected with Load Extended Address.
func splitWord(word uint32) (msb, lsb byte) {
	return byte((word >> 8) & 0xFF), byte(word & 0xFF)
}

func extendedByte(word uint32) byte {
	return byte((word >> 16) & 0xFF)
}

// LoadExtendedAddress selects bits 23..16 of the word address for the
// following page write and read instructions.
func (p *Programmer) LoadExtendedAddress(extended byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("load extended address"); err != nil {
		return err
	}
	p.loadExtendedAddress(extended)
	return nil
}

func (p *Programmer) loadExtendedAddress(extended byte) {
	p.bus.SendInstruction(opLoadExtendedAddress, 0x00, extended, 0x00)
	p.extended = extended
}

// selectExtended loads the extended address byte of word unless the target
// already holds it.
func (p *Programmer) selectExtended(word uint32) {
	if ext := extendedByte(word); ext != p.extended {
		p.loadExtendedAddress(ext)
	}
}

// LoadProgramMemoryPage places one byte into the target's page buffer.
// Only the low 8 bits of the word address are sent: they address the word
// within the page.
func (p *Programmer) LoadProgramMemoryPage(address uint32, data byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("load program memory page"); err != nil {
		return err
	}
	p.loadProgramMemoryPage(address, data)
	return nil
}

func (p *Programmer) loadProgramMemoryPage(address uint32, data byte) {
	word := byte(WordAddress(address) & 0xFF)
	if ByteSelector(address) == 1 {
		p.bus.SendInstruction(opLoadPageHigh, 0x00, word, data)
	} else {
		p.bus.SendInstruction(opLoadPageLow, 0x00, word, data)
	}
}

// WriteMemoryPage commits the page buffer to the flash page containing
// address and waits until the target is ready.
func (p *Programmer) WriteMemoryPage(ctx context.Context, address uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("write memory page"); err != nil {
		return err
	}
	return p.writeMemoryPage(ctx, address)
}

func (p *Programmer) writeMemoryPage(ctx context.Context, address uint32) error {
	msb, lsb := splitWord(WordAddress(address))
	p.bus.SendInstruction(opWritePage, msb, lsb, 0x00)
	return p.waitReady(ctx, "write memory page")
}

// ReadProgramMemory reads the flash byte at address.
func (p *Programmer) ReadProgramMemory(address uint32) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read program memory"); err != nil {
		return 0, err
	}
	return p.readProgramMemory(address), nil
}

func (p *Programmer) readProgramMemory(address uint32) byte {
	msb, lsb := splitWord(WordAddress(address))
	if ByteSelector(address) == 1 {
		return p.bus.SendInstruction(opReadHigh, msb, lsb, 0x00)
	}
	return p.bus.SendInstruction(opReadLow, msb, lsb, 0x00)
}

// ReadFlash fills buf with flash starting at address, loading the extended
// address byte whenever the read crosses a 64K word boundary.
func (p *Programmer) ReadFlash(ctx context.Context, address uint32, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("read flash"); err != nil {
		return err
	}
	return p.readFlash(ctx, address, buf, PhaseReading)
}

func (p *Programmer) readFlash(ctx context.Context, address uint32, buf []byte, phase Phase) error {
	for i := range buf {
		addr := address + uint32(i)
		// check cancellation once per 256 bytes
		if i&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return &TimeoutError{Op: "read flash", Err: err}
			}
			p.reportProgress(Progress{Phase: phase, Done: i, Total: len(buf)})
		}
		p.selectExtended(WordAddress(addr))
		buf[i] = p.readProgramMemory(addr)
	}
	p.reportProgress(Progress{Phase: phase, Done: len(buf), Total: len(buf)})
	return nil
}

// WriteFlash programs data at address page by page. The pages must have
// been erased. Partial pages at either end are written with the untouched
// bytes left at 0xFF in the page buffer. With WithVerify the data is read
// back afterwards.
func (p *Programmer) WriteFlash(ctx context.Context, address uint32, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.requireEngaged("write flash"); err != nil {
		return err
	}

	pageSize := p.config.PageSize
	if pageSize == 0 {
		dev, err := p.identify()
		if err != nil {
			return fmt.Errorf("write flash: page size unknown: %w", err)
		}
		pageSize = dev.PageSize
	}
	pageMask := uint32(pageSize - 1)

	end := address + uint32(len(data))
	for addr := address; addr < end; {
		page := addr &^ pageMask
		pageEnd := min(page+uint32(pageSize), end)

		for ; addr < pageEnd; addr++ {
			p.loadProgramMemoryPage(addr, data[addr-address])
		}
		p.selectExtended(WordAddress(page))
		if err := p.writeMemoryPage(ctx, page); err != nil {
			return fmt.Errorf("write flash page 0x%06X: %w", page, err)
		}
		p.logger.Debug("Flash page written", "page", fmt.Sprintf("0x%06X", page))
		p.reportProgress(Progress{Phase: PhaseWriting, Done: int(addr - address), Total: len(data)})
	}

	if !p.config.Verify {
		return nil
	}
	readBack := make([]byte, len(data))
	if err := p.readFlash(ctx, address, readBack, PhaseVerifying); err != nil {
		return err
	}
	for i := range data {
		if readBack[i] != data[i] {
			return &VerifyError{Address: address + uint32(i), Expected: data[i], Actual: readBack[i]}
		}
	}
	p.logger.Info("Flash written and verified", "address", fmt.Sprintf("0x%06X", address), "bytes", len(data))
	return nil
}

func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}
