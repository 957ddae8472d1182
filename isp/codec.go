package isp

// The codec functions below are pure and total: they touch only the frame
// positions their bit type owns and leave every other bit untouched, so
// SetBits/SetAddr/SetInput may be layered onto the same frame in any order.

// SetBits writes every fixed-polarity bit of the opcode into cmd. Both
// BitValue and BitIgnore positions are driven (ignored bits to 0) so that a
// frame built from a zeroed buffer is fully determined.
func (op *Opcode) SetBits(cmd *[4]byte) {
	for i := 0; i < 32; i++ {
		t := op.Bit[i].Type
		if t != BitValue && t != BitIgnore {
			continue
		}
		j := 3 - i/8
		mask := byte(1) << (i % 8)
		if t == BitValue && op.Bit[i].Value != 0 {
			cmd[j] |= mask
		} else {
			cmd[j] &^= mask
		}
	}
}

// SetAddr writes the address bits of the opcode into cmd: for each
// BitAddress position, bit BitNo of addr is copied to the position's frame
// location.
func (op *Opcode) SetAddr(cmd *[4]byte, addr uint32) {
	for i := 0; i < 32; i++ {
		if op.Bit[i].Type != BitAddress {
			continue
		}
		j := 3 - i/8
		mask := byte(1) << (i % 8)
		if addr>>(op.Bit[i].BitNo&31)&1 != 0 {
			cmd[j] |= mask
		} else {
			cmd[j] &^= mask
		}
	}
}

// SetInput writes the input data bits of the opcode into cmd: for each
// BitInput position, bit BitNo of data is copied to the position's frame
// location.
func (op *Opcode) SetInput(cmd *[4]byte, data byte) {
	for i := 0; i < 32; i++ {
		if op.Bit[i].Type != BitInput {
			continue
		}
		j := 3 - i/8
		mask := byte(1) << (i % 8)
		if data>>(op.Bit[i].BitNo&7)&1 != 0 {
			cmd[j] |= mask
		} else {
			cmd[j] &^= mask
		}
	}
}

// GetOutput extracts the output data bits from a response frame and ORs
// them, shifted to their logical positions, into *data. The accumulation is
// deliberate: output fields split across several response bits build up the
// byte one bit at a time, and re-extracting the same response never clears
// bits already set.
func (op *Opcode) GetOutput(res [4]byte, data *byte) {
	for i := 0; i < 32; i++ {
		if op.Bit[i].Type != BitOutput {
			continue
		}
		j := 3 - i/8
		if res[j]>>(i%8)&1 != 0 {
			*data |= 1 << (op.Bit[i].BitNo & 7)
		}
	}
}

// OutputIndex returns the frame byte index holding the first output bit of
// the opcode, or -1 if the opcode defines no output bits.
func (op *Opcode) OutputIndex() int {
	for i := 0; i < 32; i++ {
		if op.Bit[i].Type == BitOutput {
			return 3 - i/8
		}
	}
	return -1
}
