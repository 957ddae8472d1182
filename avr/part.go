package avr

import (
	"time"

	"github.com/moffa90/go-avrisp/isp"
)

// ResetDisposition selects how the programmer should drive the target's
// reset line.
type ResetDisposition int

const (
	// ResetDedicated means the reset pin is dedicated and may be held low
	// for the whole session.
	ResetDedicated ResetDisposition = iota

	// ResetIO means reset is shared with an I/O function and must only be
	// pulsed.
	ResetIO
)

// Part describes one AVR device: identification, programming timing, its
// memory regions and the part-level instructions (program enable, chip
// erase) that are not tied to a particular region.
//
// Parts are constructed once from configuration data and live for the
// process run. The engine treats everything except memory buffers as
// read-only.
type Part struct {
	// ID is the short configuration name ("m328p"), Desc the long one.
	ID   string
	Desc string

	// Signature holds the three expected device signature bytes.
	Signature [3]byte

	// DevCode is the device code used by AVR910-style serial programmers
	// to select the part. Zero means the part has no assigned code.
	DevCode byte

	// ChipEraseDelay is the self-timed bulk erase duration.
	ChipEraseDelay time.Duration

	// Serial-programming session timing.
	Timeout       int
	StabDelay     int
	CmdExeDelay   int
	SynchLoops    int
	ByteDelay     int
	PollIndex     int
	PollValue     byte
	ResetDisp     ResetDisposition

	// Mem holds the part's memory regions in configuration order.
	Mem []*Memory

	// Ops holds part-level opcodes (chip erase, program enable).
	Ops [isp.NumOperations]*isp.Opcode
}

// Memory returns the region with the given canonical name, or nil. Lookup
// is by exact name ("lockbits" aliasing lock); prefix matching is
// deliberately not supported, it is ambiguous between regions sharing a
// prefix.
func (p *Part) Memory(name string) *Memory {
	kind, ok := KindByName(name)
	if !ok {
		return nil
	}
	return p.MemoryOf(kind)
}

// MemoryOf returns the first region of the given kind, or nil.
func (p *Part) MemoryOf(kind MemKind) *Memory {
	for _, m := range p.Mem {
		if m.Kind == kind {
			return m
		}
	}
	return nil
}

// Op returns the part-level opcode for the given operation, or nil.
func (p *Part) Op(op isp.Operation) *isp.Opcode {
	if op < 0 || op >= isp.NumOperations {
		return nil
	}
	return p.Ops[op]
}

// Clone returns a deep copy of the part whose memories have independent,
// zero-filled buffers. Used to build the "expected" half of a
// write-then-verify pair without disturbing the buffers read from the
// device.
func (p *Part) Clone() *Part {
	c := *p
	c.Mem = make([]*Memory, len(p.Mem))
	for i, m := range p.Mem {
		c.Mem[i] = m.Clone()
	}
	return &c
}
