package programmer

import (
	"fmt"

	"github.com/moffa90/go-avrisp/avr"
)

// The erase cycle counter lives in the last four bytes of EEPROM, stored
// big-endian. Factory-fresh EEPROM reads all-ones, so 0xFFFFFFFF is
// interpreted as zero cycles.

// CycleCount reads the erase cycle counter from EEPROM.
func (p *Programmer) CycleCount() (uint32, error) {
	m, err := p.cycleMemory()
	if err != nil {
		return 0, err
	}

	var count uint32
	for i := 4; i > 0; i-- {
		v, err := p.readByte(m, uint32(m.Size-i))
		if err != nil {
			return 0, err
		}
		count = count<<8 | uint32(v)
	}
	if count == 0xFFFFFFFF {
		count = 0
	}
	return count, nil
}

// SetCycleCount stores the erase cycle counter in EEPROM.
func (p *Programmer) SetCycleCount(count uint32) error {
	m, err := p.cycleMemory()
	if err != nil {
		return err
	}

	for i := 1; i <= 4; i++ {
		if err := p.writeByte(m, uint32(m.Size-i), byte(count)); err != nil {
			return err
		}
		count >>= 8
	}
	return nil
}

func (p *Programmer) cycleMemory() (*avr.Memory, error) {
	m := p.part.MemoryOf(avr.KindEEPROM)
	if m == nil {
		return nil, &MemoryNotFoundError{Part: p.part.Desc, Memory: "eeprom"}
	}
	if m.Size < 4 {
		return nil, fmt.Errorf("eeprom on %s too small for cycle counter (%d bytes)", p.part.Desc, m.Size)
	}
	return m, nil
}
