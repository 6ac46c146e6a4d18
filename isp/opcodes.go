package isp

// Serial programming instruction bytes. Values are the wire contract and
// must not change.
const (
	opProgrammingEnable = 0xAC
	opEnableEcho        = 0x53

	opPollReady = 0xF0

	opWriteCommand       = 0xAC // first byte of erase, lock and fuse writes
	subChipErase         = 0x80
	subWriteLockBits     = 0xE0
	subWriteFuseLow      = 0xA0
	subWriteFuseHigh     = 0xA8
	subWriteFuseExtended = 0xA4

	opLoadExtendedAddress = 0x4D
	opLoadPageLow         = 0x40
	opLoadPageHigh        = 0x48
	opWritePage           = 0x4C
	opReadLow             = 0x20
	opReadHigh            = 0x28

	opReadLockBits     = 0x58
	opReadFuseLow      = 0x50
	opReadFuseHigh     = 0x58
	opReadFuseExtended = 0x50
	subReadFuseUpper   = 0x08

	opReadSignature   = 0x30
	opReadCalibration = 0x38
)

// Instruction is one 4-byte serial programming frame.
type Instruction [4]byte
