package avr910

import (
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-avrisp/avr"
	"github.com/moffa90/go-avrisp/programmer"
)

// ack is the byte the firmware sends to confirm a command.
const ack = '\r'

// Info holds the identification the programmer reports during
// initialization.
type Info struct {
	// ID is the 7-character programmer identifier.
	ID string

	// SW and HW are the software and hardware version digits.
	SW [2]byte
	HW [2]byte

	// Type is 'S' for serial programmers.
	Type byte
}

// Programmer speaks the AVR910 protocol over an io.ReadWriter. It
// implements programmer.Backend along with the native byte, paged,
// signature, chip-erase and program-enable capabilities.
//
// Not safe for concurrent use; the protocol is strict request/response.
type Programmer struct {
	rw     io.ReadWriter
	config Config

	part *avr.Part
	info Info

	autoIncr   bool
	blockMode  bool
	bufferSize int

	// One-word read cache: the 'R' command always returns a full flash
	// word, so the sibling byte of every flash read is remembered.
	cacheValid bool
	cacheAddr  uint32
	cacheValue byte
}

// New creates a Programmer over an existing transport. Initialize must be
// called before memory operations.
func New(rw io.ReadWriter, opts ...Option) *Programmer {
	if rw == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		rw:     rw,
		config: cfg,
	}
}

// Info returns the identification read during Initialize.
func (a *Programmer) Info() Info { return a.info }

func (a *Programmer) send(buf []byte) error {
	_, err := a.rw.Write(buf)
	return err
}

func (a *Programmer) recv(buf []byte) error {
	_, err := io.ReadFull(a.rw, buf)
	return err
}

// expectAck reads the one-byte acknowledgment for the named command.
func (a *Programmer) expectAck(op string) error {
	var c [1]byte
	if err := a.recv(c[:]); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if c[0] != ack {
		return &ProtocolError{Op: op, Got: c[0]}
	}
	return nil
}

// command sends a one-or-more byte command and waits for the acknowledgment.
func (a *Programmer) command(op string, buf ...byte) error {
	if err := a.send(buf); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return a.expectAck(op)
}

// query sends a one-byte command and reads n response bytes.
func (a *Programmer) query(op string, cmd byte, n int) ([]byte, error) {
	if err := a.send([]byte{cmd}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	buf := make([]byte, n)
	if err := a.recv(buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf, nil
}

// setAddr loads the firmware's address register. Flash callers pass word
// addresses, EEPROM callers byte addresses.
func (a *Programmer) setAddr(addr uint32) error {
	return a.command("set address", 'A', byte(addr>>8), byte(addr))
}

// Initialize identifies the programmer, probes its optional features,
// selects the device and enters programming mode.
//
// When the part carries no device code, the first code the programmer
// advertises is used. A part with a code the programmer does not list is
// rejected.
func (a *Programmer) Initialize(p *avr.Part) error {
	id, err := a.query("programmer id", 'S', 7)
	if err != nil {
		return err
	}
	sw, err := a.query("software version", 'V', 2)
	if err != nil {
		return err
	}
	hw, err := a.query("hardware version", 'v', 2)
	if err != nil {
		return err
	}
	ptype, err := a.query("programmer type", 'p', 1)
	if err != nil {
		return err
	}

	a.info = Info{ID: string(id), Type: ptype[0]}
	copy(a.info.SW[:], sw)
	copy(a.info.HW[:], hw)
	a.logDebug("programmer identified",
		"id", a.info.ID,
		"sw", fmt.Sprintf("%c.%c", sw[0], sw[1]),
		"hw", fmt.Sprintf("%c.%c", hw[0], hw[1]),
		"type", string(ptype))

	incr, err := a.query("auto increment probe", 'a', 1)
	if err != nil {
		return err
	}
	a.autoIncr = incr[0] == 'Y'

	a.blockMode = false
	if a.config.TryBlockMode {
		bm, err := a.query("block mode probe", 'b', 1)
		if err != nil {
			return err
		}
		if bm[0] == 'Y' {
			size, err := a.recvN(2)
			if err != nil {
				return fmt.Errorf("block mode probe: %w", err)
			}
			a.blockMode = true
			a.bufferSize = int(size[0])<<8 | int(size[1])
			a.logDebug("buffered memory access available", "buffersize", a.bufferSize)
		}
	}

	devcode := a.config.DevCode
	if devcode == 0 {
		devcode, err = a.selectDevCode(p)
		if err != nil {
			return err
		}
	}

	if err := a.command("select device", 'T', devcode); err != nil {
		return err
	}
	a.logDebug("device selected", "devcode", fmt.Sprintf("0x%02x", devcode))

	a.part = p
	return a.ProgramEnable(p)
}

// selectDevCode asks the programmer for its supported device list and
// picks the part's code from it.
func (a *Programmer) selectDevCode(p *avr.Part) (byte, error) {
	if err := a.send([]byte{'t'}); err != nil {
		return 0, fmt.Errorf("device list: %w", err)
	}

	var first byte
	supported := false
	for {
		var c [1]byte
		if err := a.recv(c[:]); err != nil {
			return 0, fmt.Errorf("device list: %w", err)
		}
		if c[0] == 0 {
			break
		}
		if first == 0 {
			first = c[0]
		}
		if p.DevCode != 0 && c[0] == p.DevCode {
			supported = true
		}
	}

	if p.DevCode == 0 {
		if first == 0 {
			return 0, &DeviceNotSupportedError{Part: p.Desc}
		}
		a.logWarn("part has no device code, using first supported",
			"part", p.Desc, "devcode", fmt.Sprintf("0x%02x", first))
		return first, nil
	}
	if !supported {
		return 0, &DeviceNotSupportedError{Part: p.Desc, DevCode: p.DevCode}
	}
	return p.DevCode, nil
}

func (a *Programmer) recvN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := a.recv(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ProgramEnable enters programming mode.
func (a *Programmer) ProgramEnable(p *avr.Part) error {
	return a.command("enter prog mode", 'P')
}

// LeaveProgMode returns the target to normal operation.
func (a *Programmer) LeaveProgMode() error {
	return a.command("leave prog mode", 'L')
}

// ChipErase performs a bulk erase. The firmware's own delay may be too
// short, so the part's erase delay is waited out here as well.
func (a *Programmer) ChipErase(p *avr.Part) error {
	if err := a.command("chip erase", 'e'); err != nil {
		return err
	}
	time.Sleep(p.ChipEraseDelay)
	a.cacheValid = false
	return nil
}

// Cmd tunnels a raw 4-byte instruction through the universal command. The
// firmware returns only the final byte of the response; the frame is
// reconstructed so opcode output decoding keeps working, since every
// opcode's output bits live in the last response byte.
func (a *Programmer) Cmd(cmd [4]byte) ([4]byte, error) {
	var res [4]byte
	if err := a.send([]byte{'.', cmd[0], cmd[1], cmd[2], cmd[3]}); err != nil {
		return res, fmt.Errorf("universal command: %w", err)
	}
	buf, err := a.recvN(2)
	if err != nil {
		return res, fmt.Errorf("universal command: %w", err)
	}
	res[0] = 0x00
	res[1] = cmd[0]
	res[2] = cmd[1]
	res[3] = buf[0]
	return res, nil
}

// WriteByte writes one byte using the native flash and EEPROM commands.
// Other memories go through the engine's instruction path.
func (a *Programmer) WriteByte(m *avr.Memory, addr uint32, value byte) error {
	switch {
	case m.Kind.InFlash():
		cmd := byte('c')
		if addr&1 != 0 {
			cmd = 'C'
		}
		a.cacheValid = false
		if err := a.setAddr(addr >> 1); err != nil {
			return err
		}
		return a.command("write flash byte", cmd, value)

	case m.Kind == avr.KindEEPROM:
		if err := a.setAddr(addr); err != nil {
			return err
		}
		return a.command("write eeprom byte", 'D', value)

	default:
		return programmer.WriteByteDefault(a, a.part, m, addr, value)
	}
}

// ReadByte reads one byte using the native flash and EEPROM commands.
// Flash reads always transfer a whole word; the unused byte is cached for
// the inevitable next call.
func (a *Programmer) ReadByte(m *avr.Memory, addr uint32) (byte, error) {
	switch {
	case m.Kind.InFlash():
		if a.cacheValid && a.cacheAddr == addr {
			return a.cacheValue, nil
		}
		if err := a.setAddr(addr >> 1); err != nil {
			return 0, err
		}
		buf, err := a.query("read flash word", 'R', 2)
		if err != nil {
			return 0, err
		}
		// MSB arrives first.
		a.cacheValid = true
		a.cacheAddr = addr ^ 1
		a.cacheValue = buf[addr&1]
		return buf[(addr&1)^1], nil

	case m.Kind == avr.KindEEPROM:
		if err := a.setAddr(addr); err != nil {
			return 0, err
		}
		buf, err := a.query("read eeprom byte", 'd', 1)
		if err != nil {
			return 0, err
		}
		return buf[0], nil

	default:
		return programmer.ReadByteDefault(a, m, addr)
	}
}

// ReadSignature reads the three signature bytes with the dedicated
// command. The firmware returns them in reverse order.
func (a *Programmer) ReadSignature(m *avr.Memory) (int, error) {
	if m.Size < 3 {
		return 0, fmt.Errorf("memory %s too small for signature read", m.Name)
	}
	buf, err := a.query("read signature", 's', 3)
	if err != nil {
		return 0, err
	}
	m.Buf[0] = buf[2]
	m.Buf[1] = buf[1]
	m.Buf[2] = buf[0]
	return 3, nil
}
