package programmer

import (
	"time"

	"github.com/moffa90/go-avrisp/avr"
)

// simBackend models an ATmega328P behind a raw-frame transport: it decodes
// the serial programming instruction set and keeps real memory contents, so
// engine tests exercise the full codec path.
type simBackend struct {
	flash  [32768]byte
	eeprom [1024]byte
	page   [128]byte
	sig    [3]byte

	lfuse, hfuse, efuse, lock byte

	cmds         int
	eepromWrites int
	pageCommits  int
	erases       int
}

func newSimBackend() *simBackend {
	return &simBackend{sig: [3]byte{0x1E, 0x95, 0x0F}}
}

func (s *simBackend) Cmd(cmd [4]byte) ([4]byte, error) {
	s.cmds++
	res := [4]byte{0x00, cmd[0], cmd[1], 0x00}

	eeAddr := uint32(cmd[1]&0x03)<<8 | uint32(cmd[2])
	word := uint32(cmd[1]&0x3F)<<8 | uint32(cmd[2])

	switch cmd[0] {
	case 0xA0: // eeprom read
		res[3] = s.eeprom[eeAddr]
	case 0xC0: // eeprom write
		s.eeprom[eeAddr] = cmd[3]
		s.eepromWrites++
	case 0x20: // flash read low
		res[3] = s.flash[word*2]
	case 0x28: // flash read high
		res[3] = s.flash[word*2+1]
	case 0x40: // loadpage low
		s.page[(cmd[2]&0x3F)*2] = cmd[3]
	case 0x48: // loadpage high
		s.page[(cmd[2]&0x3F)*2+1] = cmd[3]
	case 0x4C: // writepage
		base := word * 2 &^ 127
		copy(s.flash[base:base+128], s.page[:])
		s.pageCommits++
	case 0x30: // signature read
		res[3] = s.sig[cmd[2]&0x03]
	case 0x50:
		if cmd[1]&0x08 != 0 {
			res[3] = s.efuse
		} else {
			res[3] = s.lfuse
		}
	case 0x58:
		if cmd[1]&0x08 != 0 {
			res[3] = s.hfuse
		} else {
			res[3] = s.lock
		}
	case 0xAC:
		switch {
		case cmd[1] == 0x53: // program enable, echo already in res[2]
		case cmd[1]&0xE0 == 0x80: // chip erase
			for i := range s.flash {
				s.flash[i] = 0xFF
			}
			for i := range s.eeprom {
				s.eeprom[i] = 0xFF
			}
			s.erases++
		case cmd[1] == 0xA0:
			s.lfuse = cmd[3]
		case cmd[1] == 0xA8:
			s.hfuse = cmd[3]
		case cmd[1] == 0xA4:
			s.efuse = cmd[3]
		case cmd[1]&0xE0 == 0xE0:
			s.lock = cmd[3]
		}
	}
	return res, nil
}

// droppingBackend accepts writes but never stores them, so every verified
// write polls to exhaustion.
type droppingBackend struct {
	*simBackend
	droppedWrites int
}

func (d *droppingBackend) Cmd(cmd [4]byte) ([4]byte, error) {
	if cmd[0] == 0xC0 {
		d.droppedWrites++
		return [4]byte{0x00, cmd[0], cmd[1], 0x00}, nil
	}
	return d.simBackend.Cmd(cmd)
}

// noEchoBackend answers every frame with zeros, failing the program-enable
// echo check.
type noEchoBackend struct{}

func (noEchoBackend) Cmd(cmd [4]byte) ([4]byte, error) {
	return [4]byte{}, nil
}

// powerBackend drops writes and offers the power-cycle capability.
type powerBackend struct {
	droppingBackend
	downs, ups, inits int
	downErr           error
}

func (p *powerBackend) PowerDown() error {
	p.downs++
	return p.downErr
}

func (p *powerBackend) PowerUp() error {
	p.ups++
	return nil
}

func (p *powerBackend) Initialize(part *avr.Part) error {
	p.inits++
	return nil
}

// fakeClock advances on every Now call so polling deadlines expire without
// real waiting, and records every sleep.
type fakeClock struct {
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: 2 * time.Millisecond}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) slept(d time.Duration) bool {
	for _, s := range c.sleeps {
		if s == d {
			return true
		}
	}
	return false
}

// MockLogger collects log messages for assertions.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Warn(msg string, kv ...interface{}) {
	l.warnMsgs = append(l.warnMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}
