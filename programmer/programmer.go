package programmer

import (
	"github.com/moffa90/go-avrisp/avr"
	"github.com/moffa90/go-avrisp/isp"
)

// Programmer orchestrates memory operations against one AVR target through
// one backend. It owns the write-verify state machine, page commit
// scheduling, progress reporting and the fuse shadow; the backend only
// moves frames.
//
// A Programmer is not safe for concurrent use: the underlying protocol is
// strictly request/response.
type Programmer struct {
	backend Backend
	part    *avr.Part
	config  Config
}

// New creates a Programmer for the given backend and part descriptor.
//
// Example:
//
//	port, _ := avr910.Open("/dev/ttyUSB0", 19200)
//	prog := programmer.New(port, avr.ATmega328P(),
//	    programmer.WithProgressCallback(progressFunc),
//	)
func New(backend Backend, part *avr.Part, opts ...Option) *Programmer {
	if backend == nil {
		panic("backend cannot be nil")
	}
	if part == nil {
		panic("part cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		backend: backend,
		part:    part,
		config:  cfg,
	}
}

// Part returns the part descriptor this Programmer was created with.
func (p *Programmer) Part() *avr.Part { return p.part }

// memory resolves a memory name against the part.
func (p *Programmer) memory(name string) (*avr.Memory, error) {
	m := p.part.Memory(name)
	if m == nil {
		return nil, &MemoryNotFoundError{Part: p.part.Desc, Memory: name}
	}
	return m, nil
}

// ReadByte reads a single byte from the named memory.
func (p *Programmer) ReadByte(name string, addr uint32) (byte, error) {
	m, err := p.memory(name)
	if err != nil {
		return 0, err
	}
	return p.readByte(m, addr)
}

func (p *Programmer) readByte(m *avr.Memory, addr uint32) (byte, error) {
	if br, ok := p.backend.(ByteReader); ok {
		return br.ReadByte(m, addr)
	}
	return ReadByteDefault(p.backend, m, addr)
}

// WriteByte writes a single byte to the named memory and confirms it
// landed. A returned ErrRetryAfterRecovery means the device was
// power-cycled back to life and the write should be reissued.
func (p *Programmer) WriteByte(name string, addr uint32, value byte) error {
	m, err := p.memory(name)
	if err != nil {
		return err
	}
	return p.writeByte(m, addr, value)
}

func (p *Programmer) writeByte(m *avr.Memory, addr uint32, value byte) error {
	var err error
	if bw, ok := p.backend.(ByteWriter); ok {
		err = bw.WriteByte(m, addr, value)
	} else {
		err = writeByteVerified(p.backend, p.part, m, addr, value, p.config.Clock, p.readByte)
	}
	if err == nil && m.Kind.IsFuse() && p.config.FuseRecorder != nil {
		p.config.FuseRecorder.RecordFuseWrite(m.Kind, value)
	}
	return err
}

// ProgramEnable puts the target into serial programming mode. Backends with
// a native handshake use it; otherwise the part's pgm_enable instruction is
// issued and the response checked for the echo of the second command byte,
// which is how the target acknowledges synchronization.
func (p *Programmer) ProgramEnable() error {
	if pe, ok := p.backend.(ProgramEnabler); ok {
		return pe.ProgramEnable(p.part)
	}

	op := p.part.Op(isp.OpPgmEnable)
	if op == nil {
		return &OpNotSupportedError{Memory: p.part.Desc, Op: isp.OpPgmEnable}
	}

	var cmd [4]byte
	op.SetBits(&cmd)
	res, err := p.backend.Cmd(cmd)
	if err != nil {
		return &CommError{Op: "program enable", Err: err}
	}
	if res[2] != cmd[1] {
		return &ProgramEnableError{Cmd: cmd, Res: res}
	}
	return nil
}

// ChipErase performs a bulk erase of flash, EEPROM and lock bits. When
// erase cycle counting is enabled the counter stored in EEPROM is read
// before the erase and written back incremented afterwards.
func (p *Programmer) ChipErase() error {
	var cycles uint32
	haveCycles := false
	if p.config.CountEraseCycles {
		if c, err := p.CycleCount(); err == nil {
			cycles = c
			haveCycles = true
		} else {
			p.logDebug("erase cycle counter unreadable, skipping", "err", err.Error())
		}
	}

	setLED(p.backend, LEDProgram, true)
	defer setLED(p.backend, LEDProgram, false)

	p.reportProgress(Progress{Phase: PhaseErasing, Memory: "chip"})

	if ce, ok := p.backend.(ChipEraser); ok {
		if err := ce.ChipErase(p.part); err != nil {
			setLED(p.backend, LEDError, true)
			return err
		}
	} else {
		op := p.part.Op(isp.OpChipErase)
		if op == nil {
			return &OpNotSupportedError{Memory: p.part.Desc, Op: isp.OpChipErase}
		}
		var cmd [4]byte
		op.SetBits(&cmd)
		if _, err := p.backend.Cmd(cmd); err != nil {
			setLED(p.backend, LEDError, true)
			return &CommError{Op: "chip erase", Err: err}
		}
		p.config.Clock.Sleep(p.part.ChipEraseDelay)
		// The erase drops the target out of programming mode on some
		// devices; re-run initialization when the backend can.
		if pc, ok := p.backend.(PowerCycler); ok {
			if err := pc.Initialize(p.part); err != nil {
				setLED(p.backend, LEDError, true)
				return err
			}
		}
	}

	p.logInfo("chip erased", "part", p.part.Desc)

	if haveCycles {
		if err := p.SetCycleCount(cycles + 1); err != nil {
			p.logError("failed to update erase cycle counter", "err", err.Error())
			return err
		}
		p.logDebug("erase cycle counter updated", "cycles", cycles+1)
	}
	return nil
}

// ReadSignature reads the device signature and checks it against the part
// descriptor.
func (p *Programmer) ReadSignature() ([3]byte, error) {
	var sig [3]byte
	m := p.part.MemoryOf(avr.KindSignature)
	if m == nil {
		return sig, &MemoryNotFoundError{Part: p.part.Desc, Memory: "signature"}
	}
	if _, err := p.ReadMemory(m.Name, 0); err != nil {
		return sig, err
	}
	copy(sig[:], m.Buf)
	if sig != p.part.Signature {
		return sig, &SignatureMismatchError{
			Part:     p.part.Desc,
			Expected: p.part.Signature,
			Actual:   sig,
		}
	}
	return sig, nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if a logger is configured.
func (p *Programmer) logWarn(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
