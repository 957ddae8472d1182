package avr910

import (
	"time"

	"github.com/moffa90/go-avrisp/avr"
	"github.com/moffa90/go-avrisp/isp"
	"github.com/moffa90/go-avrisp/programmer"
)

// PagedWrite transfers n bytes from m.Buf starting at addr. Firmwares
// with buffered memory access get whole blocks; otherwise flash goes byte
// by byte with an explicit page flush command and EEPROM byte by byte with
// the write delay after each.
func (a *Programmer) PagedWrite(m *avr.Memory, pageSize, addr, n int) (int, error) {
	isFlash := m.Kind.InFlash()
	isEE := m.Kind == avr.KindEEPROM
	if !isFlash && !isEE {
		return 0, &programmer.OpNotSupportedError{Memory: m.Name, Op: isp.OpWrite}
	}

	if a.blockMode {
		return a.blockWrite(m, addr, n, isEE)
	}
	if isFlash {
		return a.pagedWriteFlash(m, pageSize, addr, n)
	}
	return a.pagedWriteEEPROM(m, addr, n)
}

func (a *Programmer) blockWrite(m *avr.Memory, addr, n int, isEE bool) (int, error) {
	blocksize := a.bufferSize
	memtype := byte('F')
	if isEE {
		// EEPROM block writes trip up several firmwares; single bytes
		// always work.
		blocksize = 1
		memtype = 'E'
	} else {
		a.cacheValid = false
	}

	wireAddr := uint32(addr)
	if !isEE {
		wireAddr >>= 1
	}
	if err := a.setAddr(wireAddr); err != nil {
		return 0, err
	}

	end := addr + n
	for addr < end {
		if end-addr < blocksize {
			blocksize = end - addr
		}
		cmd := make([]byte, 4+blocksize)
		cmd[0] = 'B'
		cmd[1] = byte(blocksize >> 8)
		cmd[2] = byte(blocksize)
		cmd[3] = memtype
		copy(cmd[4:], m.Buf[addr:addr+blocksize])
		if err := a.command("write block", cmd...); err != nil {
			return addr, err
		}
		addr += blocksize
	}
	return n, nil
}

func (a *Programmer) pagedWriteFlash(m *avr.Memory, pageSize, addr, n int) (int, error) {
	a.cacheValid = false

	end := addr + n
	pageAddr := addr
	pageBytes := pageSize
	pending := false

	if err := a.setAddr(uint32(addr) >> 1); err != nil {
		return 0, err
	}

	flush := func(at int) error {
		if err := a.setAddr(uint32(at) >> 1); err != nil {
			return err
		}
		if err := a.command("flush page", 'm'); err != nil {
			return err
		}
		time.Sleep(m.MaxWriteDelay)
		return nil
	}

	for addr < end {
		pending = true
		cmd := byte('c')
		if addr&1 != 0 {
			cmd = 'C'
		}
		if err := a.command("write flash byte", cmd, m.Buf[addr]); err != nil {
			return addr, err
		}
		addr++
		pageBytes--

		switch {
		case m.Paged && pageBytes == 0:
			if err := flush(pageAddr); err != nil {
				return addr, err
			}
			pending = false
			if err := a.setAddr(uint32(addr) >> 1); err != nil {
				return addr, err
			}
			pageAddr = addr
			pageBytes = pageSize
		case !a.autoIncr && addr&1 == 0:
			if err := a.setAddr(uint32(addr) >> 1); err != nil {
				return addr, err
			}
		}
	}

	if pending {
		if err := flush(pageAddr); err != nil {
			return addr, err
		}
	}
	return n, nil
}

func (a *Programmer) pagedWriteEEPROM(m *avr.Memory, addr, n int) (int, error) {
	if err := a.setAddr(uint32(addr)); err != nil {
		return 0, err
	}

	end := addr + n
	for addr < end {
		if err := a.command("write eeprom byte", 'D', m.Buf[addr]); err != nil {
			return addr, err
		}
		time.Sleep(m.MaxWriteDelay)
		addr++
		if !a.autoIncr {
			if err := a.setAddr(uint32(addr)); err != nil {
				return addr, err
			}
		}
	}
	return n, nil
}

// PagedLoad transfers n bytes into m.Buf starting at addr, using block
// reads when the firmware supports them and word or byte reads otherwise.
func (a *Programmer) PagedLoad(m *avr.Memory, pageSize, addr, n int) (int, error) {
	isFlash := m.Kind.InFlash()
	isEE := m.Kind == avr.KindEEPROM
	if !isFlash && !isEE {
		return 0, &programmer.OpNotSupportedError{Memory: m.Name, Op: isp.OpRead}
	}

	wireAddr := uint32(addr)
	if !isEE {
		wireAddr >>= 1
	}
	if err := a.setAddr(wireAddr); err != nil {
		return 0, err
	}

	end := addr + n

	if a.blockMode {
		blocksize := a.bufferSize
		memtype := byte('F')
		if isEE {
			memtype = 'E'
		}
		for addr < end {
			if end-addr < blocksize {
				blocksize = end - addr
			}
			if err := a.send([]byte{'g', byte(blocksize >> 8), byte(blocksize), memtype}); err != nil {
				return addr, err
			}
			if err := a.recv(m.Buf[addr : addr+blocksize]); err != nil {
				return addr, err
			}
			addr += blocksize
		}
		return n, nil
	}

	for addr < end {
		if isEE {
			buf, err := a.query("read eeprom byte", 'd', 1)
			if err != nil {
				return addr, err
			}
			m.Buf[addr] = buf[0]
			addr++
		} else {
			buf, err := a.query("read flash word", 'R', 2)
			if err != nil {
				return addr, err
			}
			// MSB first on the wire.
			m.Buf[addr] = buf[1]
			if addr+1 < len(m.Buf) {
				m.Buf[addr+1] = buf[0]
			}
			addr += 2
		}
		if !a.autoIncr {
			wireAddr := uint32(addr)
			if !isEE {
				wireAddr >>= 1
			}
			if err := a.setAddr(wireAddr); err != nil {
				return addr, err
			}
		}
	}
	return n, nil
}
