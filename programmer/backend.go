package programmer

import (
	"github.com/moffa90/go-avrisp/avr"
)

// Backend is the minimum contract a transport must provide to the engine:
// the ability to exchange one raw 4-byte instruction frame with the target.
// Everything else the engine needs can be synthesized from Cmd and the
// part's opcode tables.
//
// Transports advertise accelerations and extra facilities by additionally
// implementing the optional capability interfaces below; the engine
// discovers them with type assertions. A transport that implements none of
// them still supports every engine operation, just without shortcuts.
//
// All calls are synchronous and blocking; the underlying protocol is
// half-duplex request/response with no overlap between in-flight commands.
// A Backend is owned by exactly one Programmer for the run's duration.
type Backend interface {
	// Cmd sends a 4-byte instruction frame and returns the 4-byte response.
	Cmd(cmd [4]byte) ([4]byte, error)
}

// ByteReader is implemented by backends with a native single-byte read that
// bypasses the raw instruction path (typically firmware programmers that
// speak a byte-oriented protocol of their own).
type ByteReader interface {
	ReadByte(m *avr.Memory, addr uint32) (byte, error)
}

// ByteWriter is the write-side counterpart of ByteReader. Implementations
// are responsible for their own write confirmation; the engine's
// write-verify state machine only runs for backends without this
// capability.
type ByteWriter interface {
	WriteByte(m *avr.Memory, addr uint32, value byte) error
}

// PagedLoader is implemented by backends with a bulk paged read. PagedLoad
// transfers n bytes starting at addr directly into m.Buf and returns the
// byte count transferred.
type PagedLoader interface {
	PagedLoad(m *avr.Memory, pageSize, addr, n int) (int, error)
}

// PagedWriter is implemented by backends with a bulk paged write. Data is
// taken from m.Buf starting at addr.
type PagedWriter interface {
	PagedWrite(m *avr.Memory, pageSize, addr, n int) (int, error)
}

// SignatureReader is implemented by backends with a dedicated signature
// read command. ReadSignature fills m.Buf and returns the byte count.
type SignatureReader interface {
	ReadSignature(m *avr.Memory) (int, error)
}

// WriteSetup is implemented by backends that need a per-memory setup call
// before a byte-wise region write begins.
type WriteSetup interface {
	WriteSetup(m *avr.Memory) error
}

// ProgramEnabler is implemented by backends with a native program-enable
// handshake. Without it the engine issues the part's pgm_enable opcode.
type ProgramEnabler interface {
	ProgramEnable(p *avr.Part) error
}

// ChipEraser is implemented by backends with a native bulk erase. Without
// it the engine issues the part's chip_erase opcode and waits out the
// part's erase delay.
type ChipEraser interface {
	ChipErase(p *avr.Part) error
}

// PowerCycler is implemented by backends that control target power and can
// re-run the device initialization sequence. The engine uses it to recover
// from the power-off-after-write erratum; without it that recovery path is
// unavailable.
type PowerCycler interface {
	PowerDown() error
	PowerUp() error
	Initialize(p *avr.Part) error
}

// LED identifies a programmer status indicator.
type LED int

const (
	LEDProgram LED = iota
	LEDError
	LEDVerify
	LEDReady
)

// LEDControl is implemented by backends with status indicators. The engine
// drives them on a best-effort basis; absence is a safe no-op.
type LEDControl interface {
	SetLED(led LED, on bool)
}

// setLED drives a backend indicator if the capability exists.
func setLED(b Backend, led LED, on bool) {
	if lc, ok := b.(LEDControl); ok {
		lc.SetLED(led, on)
	}
}
