package programmer

import (
	"errors"
	"time"

	"github.com/moffa90/go-avrisp/avr"
	"github.com/moffa90/go-avrisp/isp"
)

// maxWriteRetries is the number of additional write attempts after the
// first before a verified byte write gives up.
const maxWriteRetries = 5

// recoveryPowerOffDelay is how long the target stays powered down during
// erratum recovery.
const recoveryPowerOffDelay = 250 * time.Millisecond

// readByteDispatch returns the byte-read primitive for a backend: its
// native ReadByte when it has one, otherwise the opcode-synthesized
// default.
func readByteDispatch(b Backend) func(*avr.Memory, uint32) (byte, error) {
	if br, ok := b.(ByteReader); ok {
		return br.ReadByte
	}
	return func(m *avr.Memory, addr uint32) (byte, error) {
		return ReadByteDefault(b, m, addr)
	}
}

// ReadByteDefault reads one byte through the raw instruction path: it
// selects the read opcode (lo/hi split by address parity for
// word-addressed memories), issues a load-extended-address instruction
// first if the memory defines one, and decodes the response frame.
func ReadByteDefault(b Backend, m *avr.Memory, addr uint32) (byte, error) {
	var readop *isp.Opcode
	caddr := addr
	if m.Ops[isp.OpReadLo] != nil {
		if addr&1 != 0 {
			readop = m.Ops[isp.OpReadHi]
		} else {
			readop = m.Ops[isp.OpReadLo]
		}
		caddr = addr / 2
	} else {
		readop = m.Ops[isp.OpRead]
	}
	if readop == nil {
		return 0, &OpNotSupportedError{Memory: m.Name, Op: isp.OpRead}
	}

	if lext := m.Ops[isp.OpLoadExtAddr]; lext != nil {
		var cmd [4]byte
		lext.SetBits(&cmd)
		lext.SetAddr(&cmd, caddr)
		if _, err := b.Cmd(cmd); err != nil {
			return 0, &CommError{Op: "load extended address", Addr: addr, Err: err}
		}
	}

	var cmd [4]byte
	readop.SetBits(&cmd)
	readop.SetAddr(&cmd, caddr)
	res, err := b.Cmd(cmd)
	if err != nil {
		return 0, &CommError{Op: "read byte", Addr: addr, Err: err}
	}

	var data byte
	readop.GetOutput(res, &data)
	return data, nil
}

// WriteByteDefault writes one byte through the raw instruction path and
// confirms it landed, using the real clock. Backends that implement
// ByteWriter for some memories delegate the remaining ones here.
func WriteByteDefault(b Backend, p *avr.Part, m *avr.Memory, addr uint32, value byte) error {
	return writeByteVerified(b, p, m, addr, value, SystemClock(), readByteDispatch(b))
}

// writeByteVerified is the write-confirm state machine. It covers the three
// device shapes:
//
//   - byte memories with direct readback: the write is skipped entirely if
//     the device already holds the target value (a same-value write is a
//     correctness no-op, flash and EEPROM cannot un-write without erase),
//     otherwise issued and confirmed by polled readback;
//   - word-addressed memories: write_lo/write_hi selected by address
//     parity, with the wire address halved;
//   - paged memories: loadpage_lo/hi stage the byte into the device page
//     buffer and complete immediately, the commit is deferred to
//     CommitPage.
//
// Polling is bounded by wall-clock time against the memory's max write
// delay, not by iteration count. When the written value equals one of the
// memory's readback sentinels polling cannot distinguish done from busy, so
// the full delay is slept and a single confirmatory read taken. On a
// confirmed mismatch the write is re-issued, up to maxWriteRetries extra
// attempts.
//
// Memories flagged with the power-off-after-write erratum get one recovery
// path on mismatch: power-cycle and re-initialize the device through the
// backend's PowerCycler capability. Successful recovery returns
// ErrRetryAfterRecovery (the byte still has to be rewritten); failed
// recovery returns a fatal RecoveryError because the device's power state
// is unknown.
func writeByteVerified(b Backend, p *avr.Part, m *avr.Memory, addr uint32, value byte,
	clk Clock, readByte func(*avr.Memory, uint32) (byte, error)) error {

	if m.Kind.ReadOnly() {
		if cur, err := readByte(m, addr); err == nil && cur == value {
			return nil
		}
		return &ReadOnlyError{Memory: m.Name, Addr: addr}
	}

	readok := false
	if !m.Paged {
		cur, err := readByte(m, addr)
		switch {
		case err == nil:
			readok = true
			if cur == value {
				return nil
			}
		case isUnsupported(err):
			// No readback on this memory; fall through to the timed write.
		default:
			return &ProbeError{Addr: addr, Err: err}
		}
	}

	var writeop *isp.Opcode
	caddr := addr
	switch {
	case m.Ops[isp.OpWriteLo] != nil:
		if addr&1 != 0 {
			writeop = m.Ops[isp.OpWriteHi]
		} else {
			writeop = m.Ops[isp.OpWriteLo]
		}
		caddr = addr / 2
	case m.Paged && m.Ops[isp.OpLoadPageLo] != nil:
		if addr&1 != 0 {
			writeop = m.Ops[isp.OpLoadPageHi]
		} else {
			writeop = m.Ops[isp.OpLoadPageLo]
		}
		caddr = addr / 2
	default:
		writeop = m.Ops[isp.OpWrite]
	}
	if writeop == nil {
		return &OpNotSupportedError{Memory: m.Name, Op: isp.OpWrite}
	}

	var r byte
	attempts := 0
	for attempt := 0; attempt <= maxWriteRetries; attempt++ {
		if lext := m.Ops[isp.OpLoadExtAddr]; lext != nil {
			var cmd [4]byte
			lext.SetBits(&cmd)
			lext.SetAddr(&cmd, caddr)
			if _, err := b.Cmd(cmd); err != nil {
				return &CommError{Op: "load extended address", Addr: addr, Err: err}
			}
		}

		var cmd [4]byte
		writeop.SetBits(&cmd)
		writeop.SetAddr(&cmd, caddr)
		writeop.SetInput(&cmd, value)
		if _, err := b.Cmd(cmd); err != nil {
			return &CommError{Op: "write byte", Addr: addr, Err: err}
		}
		attempts++

		if m.Paged {
			// Bytes staged into the page buffer complete immediately; the
			// delay happens once, when the page is committed.
			return nil
		}

		if !readok {
			clk.Sleep(m.MaxWriteDelay)
			return nil
		}

		if value == m.Readback[0] || value == m.Readback[1] {
			// Polling cannot tell this value from the busy sentinel. Wait
			// out the worst-case write time, then read once.
			clk.Sleep(m.MaxWriteDelay)
			var err error
			r, err = readByte(m, addr)
			if err != nil {
				return &PollError{Addr: addr, AfterDelay: true, Err: err}
			}
		} else {
			start := clk.Now()
			for {
				var err error
				r, err = readByte(m, addr)
				if err != nil {
					return &PollError{Addr: addr, Err: err}
				}
				if r == value || clk.Now().Sub(start) >= m.MaxWriteDelay {
					break
				}
			}
		}

		if r == value {
			return nil
		}

		if m.PwroffAfterWrite {
			// Erratum: after writing this memory the device may stop
			// responding until power-cycled. Only recover when the
			// backend actually controls target power.
			if pc, ok := b.(PowerCycler); ok {
				if err := pc.PowerDown(); err != nil {
					return &RecoveryError{Err: err}
				}
				clk.Sleep(recoveryPowerOffDelay)
				if err := pc.PowerUp(); err != nil {
					return &RecoveryError{Err: err}
				}
				if err := pc.Initialize(p); err != nil {
					return &RecoveryError{Err: err}
				}
				return ErrRetryAfterRecovery
			}
		}
	}

	return &VerifyTimeoutError{Memory: m.Name, Addr: addr, Want: value, Got: r, Attempts: attempts}
}

// CommitPage flushes a page staged with loadpage writes: optional
// load-extended-address, address halved for word-addressed memories, then
// the writepage instruction followed unconditionally by the memory's max
// write delay. There is no per-page readback; the delay is the only
// completion guarantee.
func CommitPage(b Backend, m *avr.Memory, addr uint32, clk Clock) error {
	wp := m.Ops[isp.OpWritePage]
	if wp == nil {
		return &OpNotSupportedError{Memory: m.Name, Op: isp.OpWritePage}
	}

	if m.WordAddressed() {
		addr = addr / 2
	}

	if lext := m.Ops[isp.OpLoadExtAddr]; lext != nil {
		var cmd [4]byte
		lext.SetBits(&cmd)
		lext.SetAddr(&cmd, addr)
		if _, err := b.Cmd(cmd); err != nil {
			return &CommError{Op: "load extended address", Addr: addr, Err: err}
		}
	}

	var cmd [4]byte
	wp.SetBits(&cmd)
	wp.SetAddr(&cmd, addr)
	if _, err := b.Cmd(cmd); err != nil {
		return &CommError{Op: "write page", Addr: addr, Err: err}
	}

	// The target's supply voltage is unknown, so wait the worst case the
	// datasheet allows.
	clk.Sleep(m.MaxWriteDelay)
	return nil
}

func isUnsupported(err error) bool {
	var opErr *OpNotSupportedError
	return errors.As(err, &opErr)
}
