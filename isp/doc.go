// Package isp implements the AVR serial-programming instruction frame codec.
//
// Every low-level ISP transaction is a fixed 4-byte command frame answered
// by a 4-byte response frame. Which bits of those frames carry fixed opcode
// values, address bits, input data or output data differs per part and per
// memory, so the layout is not hardcoded: it is described declaratively by
// an Opcode, an ordered table of 32 bit specifications (CmdBit). The codec
// in this package maps an Opcode onto concrete frames.
//
// # Bit numbering
//
// Bit indices run 31 down to 0 across the frame, most significant bit of
// the first transmitted byte first. Bit index i lives in frame byte
// 3 - i/8 at bit position i%8. This convention must be reproduced exactly:
// it defines the wire format.
//
// # Building opcodes
//
// Opcode tables are normally produced by a configuration layer. For tests
// and hand-written part descriptors, ParseOpcode accepts the conventional
// token notation, 32 tokens from bit 31 down to bit 0:
//
//	op, err := isp.ParseOpcode(
//	    "0 0 1 1 0 0 0 0   0 0 0 x x x x x   x x x x x x a1 a0   o o o o o o o o")
//
// where "0"/"1" are fixed value bits, "x" is ignored, "aN" takes bit N of
// the address, "iN" bit N of the input byte and "oN" bit N of the output
// byte. Bare "i" and "o" default to the token's bit position within its
// byte.
package isp
