package isp

import "fmt"

// Device describes a part programmable over ISP.
type Device struct {
	Name      string
	Signature [3]byte
	FlashSize int // bytes
	PageSize  int // bytes
}

func (d Device) SignatureString() string {
	return fmt.Sprintf("%02X %02X %02X", d.Signature[0], d.Signature[1], d.Signature[2])
}

// NeedsExtendedAddress reports whether word addresses exceed 16 bits.
func (d Device) NeedsExtendedAddress() bool {
	return d.FlashSize/2 > 0x10000
}

var devices = []Device{
	{"ATtiny13A", [3]byte{0x1E, 0x90, 0x07}, 1 << 10, 32},
	{"ATtiny84", [3]byte{0x1E, 0x93, 0x0C}, 8 << 10, 64},
	{"ATtiny85", [3]byte{0x1E, 0x93, 0x0B}, 8 << 10, 64},
	{"ATmega8", [3]byte{0x1E, 0x93, 0x07}, 8 << 10, 64},
	{"ATmega168PA", [3]byte{0x1E, 0x94, 0x0B}, 16 << 10, 128},
	{"ATmega328", [3]byte{0x1E, 0x95, 0x14}, 32 << 10, 128},
	{"ATmega328P", [3]byte{0x1E, 0x95, 0x0F}, 32 << 10, 128},
	{"ATmega32U4", [3]byte{0x1E, 0x95, 0x87}, 32 << 10, 128},
	{"ATmega1280", [3]byte{0x1E, 0x97, 0x03}, 128 << 10, 256},
	{"ATmega1284P", [3]byte{0x1E, 0x97, 0x05}, 128 << 10, 256},
	{"ATmega2560", [3]byte{0x1E, 0x98, 0x01}, 256 << 10, 256},
}

func LookupDevice(signature [3]byte) (Device, bool) {
	for _, d := range devices {
		if d.Signature == signature {
			return d, true
		}
	}
	return Device{}, false
}

// Devices returns a copy of the device table.
func Devices() []Device {
	return append([]Device(nil), devices...)
}
