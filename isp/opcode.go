package isp

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameSize is the fixed length of an ISP instruction or response frame.
const FrameSize = 4

// BitType classifies the role of a single bit inside an instruction frame.
type BitType int

const (
	// BitIgnore marks a bit that carries no information in either direction.
	BitIgnore BitType = iota

	// BitValue marks a bit with a fixed 0/1 polarity (the opcode proper).
	BitValue

	// BitAddress marks a bit carrying one bit of the target address.
	BitAddress

	// BitInput marks a bit carrying one bit of the data byte sent to the device.
	BitInput

	// BitOutput marks a bit of the response carrying one bit of the data byte
	// read back from the device.
	BitOutput
)

func (t BitType) String() string {
	switch t {
	case BitIgnore:
		return "ignore"
	case BitValue:
		return "value"
	case BitAddress:
		return "address"
	case BitInput:
		return "input"
	case BitOutput:
		return "output"
	default:
		return fmt.Sprintf("BitType(%d)", int(t))
	}
}

// CmdBit describes one bit of a 4-byte instruction frame.
//
// For BitValue bits, Value holds the fixed polarity (0 or 1). For
// BitAddress, BitInput and BitOutput bits, BitNo names the logical bit of
// the address or data value that this frame position carries. The roles
// are mutually exclusive per frame position.
type CmdBit struct {
	Type  BitType
	BitNo int
	Value int
}

// Opcode is a declarative bit layout for one 4-byte instruction/response
// frame. Bit[i] describes frame bit index i per the package convention
// (byte 3-i/8, position i%8).
//
// Opcodes are data, built once by a configuration layer; the codec treats
// them as read-only and performs no validation. Malformed tables are a
// configuration-time concern.
type Opcode struct {
	Bit [32]CmdBit
}

// Operation enumerates the instruction slots a memory or part may define.
// Absence of an operation's opcode means the operation is unsupported for
// that memory; it is never worked around.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
	OpReadLo
	OpReadHi
	OpWriteLo
	OpWriteHi
	OpLoadPageLo
	OpLoadPageHi
	OpLoadExtAddr
	OpWritePage
	OpChipErase
	OpPgmEnable

	// NumOperations sizes opcode tables.
	NumOperations
)

func (op Operation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpReadLo:
		return "read_lo"
	case OpReadHi:
		return "read_hi"
	case OpWriteLo:
		return "write_lo"
	case OpWriteHi:
		return "write_hi"
	case OpLoadPageLo:
		return "loadpage_lo"
	case OpLoadPageHi:
		return "loadpage_hi"
	case OpLoadExtAddr:
		return "load_ext_addr"
	case OpWritePage:
		return "writepage"
	case OpChipErase:
		return "chip_erase"
	case OpPgmEnable:
		return "pgm_enable"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

// ParseOpcode builds an Opcode from the conventional 32-token bit notation.
// Tokens are whitespace separated and run from bit 31 (MSB of the first
// transmitted byte) down to bit 0:
//
//	"0", "1"  fixed value bit
//	"x"       ignored bit
//	"aN"      address bit N
//	"iN"      input data bit N
//	"oN"      output data bit N
//
// Bare "i" and "o" default their bit number to the token's position within
// its byte, so a trailing "i i i i i i i i" reads as i7..i0.
func ParseOpcode(spec string) (*Opcode, error) {
	fields := strings.Fields(spec)
	if len(fields) != 32 {
		return nil, fmt.Errorf("opcode spec has %d bits, want 32", len(fields))
	}

	var op Opcode
	for pos, tok := range fields {
		idx := 31 - pos // token 0 is bit 31
		b, err := parseCmdBit(tok, idx)
		if err != nil {
			return nil, fmt.Errorf("bit %d: %w", idx, err)
		}
		op.Bit[idx] = b
	}
	return &op, nil
}

// MustParseOpcode is like ParseOpcode but panics on error. Intended for
// statically-known part descriptors.
func MustParseOpcode(spec string) *Opcode {
	op, err := ParseOpcode(spec)
	if err != nil {
		panic("isp: " + err.Error())
	}
	return op
}

func parseCmdBit(tok string, idx int) (CmdBit, error) {
	switch {
	case tok == "0":
		return CmdBit{Type: BitValue, Value: 0}, nil
	case tok == "1":
		return CmdBit{Type: BitValue, Value: 1}, nil
	case tok == "x" || tok == "X":
		return CmdBit{Type: BitIgnore}, nil
	}

	var typ BitType
	switch tok[0] {
	case 'a':
		typ = BitAddress
	case 'i':
		typ = BitInput
	case 'o':
		typ = BitOutput
	default:
		return CmdBit{}, fmt.Errorf("unknown bit token %q", tok)
	}

	if len(tok) == 1 {
		if typ == BitAddress {
			return CmdBit{}, fmt.Errorf("address bit %q needs an explicit bit number", tok)
		}
		return CmdBit{Type: typ, BitNo: idx % 8}, nil
	}

	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 31 {
		return CmdBit{}, fmt.Errorf("bad bit number in token %q", tok)
	}
	return CmdBit{Type: typ, BitNo: n}, nil
}
