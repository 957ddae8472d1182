package avr

import (
	"time"

	"github.com/moffa90/go-avrisp/isp"
)

// ATmega328P returns a fully populated descriptor for the ATmega328P, the
// canonical test and example part. The opcode table mirrors the device's
// serial programming instruction set; a configuration layer would normally
// build equivalent descriptors for other parts.
func ATmega328P() *Part {
	p := &Part{
		ID:             "m328p",
		Desc:           "ATmega328P",
		Signature:      [3]byte{0x1E, 0x95, 0x0F},
		ChipEraseDelay: 9000 * time.Microsecond,
		Timeout:        150,
		StabDelay:      100,
		CmdExeDelay:    25,
		SynchLoops:     32,
		ByteDelay:      0,
		PollIndex:      3,
		PollValue:      0x53,
		ResetDisp:      ResetDedicated,
	}

	p.Ops[isp.OpChipErase] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		1 0 0 x   x x x x
		x x x x   x x x x
		x x x x   x x x x`)
	p.Ops[isp.OpPgmEnable] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		0 1 0 1   0 0 1 1
		x x x x   x x x x
		x x x x   x x x x`)

	flash := NewMemory("flash", KindFlash, 32768)
	flash.Paged = true
	flash.PageSize = 128
	flash.NumPages = 256
	flash.MinWriteDelay = 4500 * time.Microsecond
	flash.MaxWriteDelay = 4500 * time.Microsecond
	flash.Readback = [2]byte{0xFF, 0xFF}
	flash.Ops[isp.OpReadLo] = isp.MustParseOpcode(`
		0   0   1   0     0   0   0   0
		0   0   a13 a12   a11 a10 a9  a8
		a7  a6  a5  a4    a3  a2  a1  a0
		o   o   o   o     o   o   o   o`)
	flash.Ops[isp.OpReadHi] = isp.MustParseOpcode(`
		0   0   1   0     1   0   0   0
		0   0   a13 a12   a11 a10 a9  a8
		a7  a6  a5  a4    a3  a2  a1  a0
		o   o   o   o     o   o   o   o`)
	flash.Ops[isp.OpLoadPageLo] = isp.MustParseOpcode(`
		0   1   0   0     0   0   0   0
		0   0   0   x     x   x   x   x
		x   x   a5  a4    a3  a2  a1  a0
		i   i   i   i     i   i   i   i`)
	flash.Ops[isp.OpLoadPageHi] = isp.MustParseOpcode(`
		0   1   0   0     1   0   0   0
		0   0   0   x     x   x   x   x
		x   x   a5  a4    a3  a2  a1  a0
		i   i   i   i     i   i   i   i`)
	flash.Ops[isp.OpWritePage] = isp.MustParseOpcode(`
		0   1   0   0     1   1   0   0
		0   0   a13 a12   a11 a10 a9  a8
		a7  a6  x   x     x   x   x   x
		x   x   x   x     x   x   x   x`)

	eeprom := NewMemory("eeprom", KindEEPROM, 1024)
	eeprom.PageSize = 4
	eeprom.NumPages = 256
	eeprom.MinWriteDelay = 3600 * time.Microsecond
	eeprom.MaxWriteDelay = 3600 * time.Microsecond
	eeprom.Readback = [2]byte{0xFF, 0xFF}
	eeprom.Ops[isp.OpRead] = isp.MustParseOpcode(`
		1   0   1   0     0   0   0   0
		0   0   x   x     x   x   a9  a8
		a7  a6  a5  a4    a3  a2  a1  a0
		o   o   o   o     o   o   o   o`)
	eeprom.Ops[isp.OpWrite] = isp.MustParseOpcode(`
		1   1   0   0     0   0   0   0
		0   0   x   x     x   x   a9  a8
		a7  a6  a5  a4    a3  a2  a1  a0
		i   i   i   i     i   i   i   i`)

	lock := NewMemory("lock", KindLock, 1)
	lock.MinWriteDelay = 4500 * time.Microsecond
	lock.MaxWriteDelay = 4500 * time.Microsecond
	lock.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 1 0 1   1 0 0 0
		0 0 0 0   0 0 0 0
		x x x x   x x x x
		x x o o   o o o o`)
	lock.Ops[isp.OpWrite] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		1 1 1 x   x x x x
		x x x x   x x x x
		1 1 i i   i i i i`)

	lfuse := NewMemory("lfuse", KindLFuse, 1)
	lfuse.MinWriteDelay = 4500 * time.Microsecond
	lfuse.MaxWriteDelay = 4500 * time.Microsecond
	lfuse.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 1 0 1   0 0 0 0
		0 0 0 0   0 0 0 0
		x x x x   x x x x
		o o o o   o o o o`)
	lfuse.Ops[isp.OpWrite] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		1 0 1 0   0 0 0 0
		x x x x   x x x x
		i i i i   i i i i`)

	hfuse := NewMemory("hfuse", KindHFuse, 1)
	hfuse.MinWriteDelay = 4500 * time.Microsecond
	hfuse.MaxWriteDelay = 4500 * time.Microsecond
	hfuse.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 1 0 1   1 0 0 0
		0 0 0 0   1 0 0 0
		x x x x   x x x x
		o o o o   o o o o`)
	hfuse.Ops[isp.OpWrite] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		1 0 1 0   1 0 0 0
		x x x x   x x x x
		i i i i   i i i i`)

	efuse := NewMemory("efuse", KindEFuse, 1)
	efuse.MinWriteDelay = 4500 * time.Microsecond
	efuse.MaxWriteDelay = 4500 * time.Microsecond
	efuse.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 1 0 1   0 0 0 0
		0 0 0 0   1 0 0 0
		x x x x   x x x x
		o o o o   o o o o`)
	efuse.Ops[isp.OpWrite] = isp.MustParseOpcode(`
		1 0 1 0   1 1 0 0
		1 0 1 0   0 1 0 0
		x x x x   x x x x
		i i i i   i i i i`)

	sig := NewMemory("signature", KindSignature, 3)
	sig.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 0 1 1   0 0 0 0
		0 0 0 x   x x x x
		x x x x   x x a1 a0
		o o o o   o o o o`)

	cal := NewMemory("calibration", KindCalibration, 1)
	cal.Ops[isp.OpRead] = isp.MustParseOpcode(`
		0 0 1 1   1 0 0 0
		0 0 0 x   x x x x
		0 0 0 0   0 0 0 0
		o o o o   o o o o`)

	p.Mem = []*Memory{eeprom, flash, lfuse, hfuse, efuse, lock, sig, cal}
	return p
}
