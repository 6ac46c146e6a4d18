package simulator

import "time"

const (
	opProgrammingEnable = 0xAC
	opEnableEcho        = 0x53

	opPollReady           = 0xF0
	opWriteCommand        = 0xAC
	opLoadExtendedAddress = 0x4D
	opLoadPageLow         = 0x40
	opLoadPageHigh        = 0x48
	opWritePage           = 0x4C
	opReadLow             = 0x20
	opReadHigh            = 0x28
	opReadLockOrFuseHigh  = 0x58
	opReadFuseLowOrExt    = 0x50
	opReadSignature       = 0x30
	opReadCalibration     = 0x38
)

const (
	fuseLow = iota
	fuseHigh
	fuseExtended
)

// read answers the fourth byte of an instruction from its first three.
func (t *Target) read(b0, b1, b2 byte) byte {
	switch b0 {
	case opPollReady:
		if t.busy() {
			return 0x01
		}
		return 0x00
	case opReadLow, opReadHigh:
		word := uint32(t.extended)<<16 | uint32(b1)<<8 | uint32(b2)
		addr := int(word)*2 + int(b0>>3&0x01)
		if addr >= len(t.flash) {
			return 0xFF
		}
		return t.flash[addr]
	case opReadLockOrFuseHigh:
		if b1 == 0x08 {
			return t.fuses[fuseHigh]
		}
		return t.lock
	case opReadFuseLowOrExt:
		if b1 == 0x08 {
			return t.fuses[fuseExtended]
		}
		return t.fuses[fuseLow]
	case opReadSignature:
		if b2 > 2 {
			return 0xFF
		}
		return t.opts.signature[b2]
	case opReadCalibration:
		return t.opts.calibration
	}
	return b2
}

// execute applies a complete instruction received while engaged.
func (t *Target) execute(inst [4]byte) {
	if inst[0] == opPollReady {
		t.pollTimes = append(t.pollTimes, t.now)
		return
	}
	if t.busy() {
		t.violations++
	}

	switch inst[0] {
	case opWriteCommand:
		switch inst[1] {
		case 0x80:
			for i := range t.flash {
				t.flash[i] = 0xFF
			}
			t.lock = 0xFF
			t.setBusy(t.opts.eraseTime)
		case 0xE0:
			// lock bits can only be programmed (cleared) until the next erase
			t.lock &= inst[3]
			t.setBusy(t.opts.fuseTime)
		case 0xA0:
			t.fuses[fuseLow] = inst[3]
			t.setBusy(t.opts.fuseTime)
		case 0xA8:
			t.fuses[fuseHigh] = inst[3]
			t.setBusy(t.opts.fuseTime)
		case 0xA4:
			t.fuses[fuseExtended] = inst[3]
			t.setBusy(t.opts.fuseTime)
		}
	case opLoadExtendedAddress:
		t.extended = inst[2]
	case opLoadPageLow, opLoadPageHigh:
		pageWords := len(t.pageBuffer) / 2
		offset := (int(inst[2])&(pageWords-1))*2 + int(inst[0]>>3&0x01)
		t.pageBuffer[offset] = inst[3]
	case opWritePage:
		pageWords := uint32(len(t.pageBuffer) / 2)
		word := uint32(t.extended)<<16 | uint32(inst[1])<<8 | uint32(inst[2])
		base := int(word&^(pageWords-1)) * 2
		for i, b := range t.pageBuffer {
			if base+i < len(t.flash) {
				// flash cells can only be cleared by a write
				t.flash[base+i] &= b
			}
			t.pageBuffer[i] = 0xFF
		}
		t.setBusy(t.opts.pageWriteTime)
	}
}

func (t *Target) setBusy(d time.Duration) {
	t.busyUntil = t.now + d
}
