package isp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/avrisp/simulator"
)

func TestReadSignature(t *testing.T) {
	prog, target := newEngaged(t, nil)

	sig, err := prog.ReadSignature()
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0x1E, 0x95, 0x0F}, sig)
	assert.Equal(t, [][4]byte{
		{0x30, 0x00, 0x00, 0x00},
		{0x30, 0x00, 0x01, 0x00},
		{0x30, 0x00, 0x02, 0x00},
	}, instructions(target.Trace()))
}

func TestReadCalibrationByte(t *testing.T) {
	prog, target := newEngaged(t, []simulator.Option{simulator.WithCalibration(0x7B)})

	cal, err := prog.ReadCalibrationByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7B), cal)
	assert.Equal(t, [4]byte{0x38, 0x00, 0x00, 0x00}, lastInstruction(t, target))
}

func TestIdentify(t *testing.T) {
	prog, _ := newEngaged(t, []simulator.Option{simulator.WithDevice([3]byte{0x1E, 0x93, 0x0B}, 8<<10, 64)})

	dev, err := prog.Identify()
	require.NoError(t, err)
	assert.Equal(t, "ATtiny85", dev.Name)
	assert.Equal(t, 64, dev.PageSize)
	assert.Equal(t, "1E 93 0B", dev.SignatureString())
	assert.False(t, dev.NeedsExtendedAddress())
}

func TestIdentify_Unknown(t *testing.T) {
	prog, _ := newEngaged(t, []simulator.Option{simulator.WithDevice([3]byte{0x00, 0x01, 0x02}, 0, 0)})

	_, err := prog.Identify()
	var unknown *UnknownDeviceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "unknown device signature 00 01 02", err.Error())
}

func TestDeviceTable(t *testing.T) {
	seen := make(map[[3]byte]string)
	for _, d := range Devices() {
		if other, found := seen[d.Signature]; found {
			t.Errorf("%s and %s share signature %s", d.Name, other, d.SignatureString())
		}
		seen[d.Signature] = d.Name
		assert.Zero(t, d.PageSize&(d.PageSize-1), "%s page size must be a power of two", d.Name)
		assert.Zero(t, d.FlashSize%d.PageSize, "%s flash must hold whole pages", d.Name)
	}

	mega, found := LookupDevice([3]byte{0x1E, 0x98, 0x01})
	require.True(t, found)
	assert.True(t, mega.NeedsExtendedAddress(), "ATmega2560 has more than 64K words")

	_, found = LookupDevice([3]byte{0xFF, 0xFF, 0xFF})
	assert.False(t, found)
}
