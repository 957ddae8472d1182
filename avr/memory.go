package avr

import (
	"time"

	"github.com/moffa90/go-avrisp/isp"
)

// MemKind is the closed taxonomy of memory regions the engine knows how to
// dispatch on. It is computed once when a part is built, never derived from
// the region name at operation time.
type MemKind int

const (
	KindFlash MemKind = iota
	KindEEPROM
	KindApplication
	KindApptable
	KindBoot
	KindUsersig
	KindProdsig
	KindSignature
	KindLock
	KindFuse
	KindLFuse
	KindHFuse
	KindEFuse
	KindCalibration
)

var kindNames = map[MemKind]string{
	KindFlash:       "flash",
	KindEEPROM:      "eeprom",
	KindApplication: "application",
	KindApptable:    "apptable",
	KindBoot:        "boot",
	KindUsersig:     "usersig",
	KindProdsig:     "prodsig",
	KindSignature:   "signature",
	KindLock:        "lock",
	KindFuse:        "fuse",
	KindLFuse:       "lfuse",
	KindHFuse:       "hfuse",
	KindEFuse:       "efuse",
	KindCalibration: "calibration",
}

func (k MemKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// KindByName maps a canonical region name to its kind. Lookup is by exact
// name; "lockbits" is accepted as an alias for lock.
func KindByName(name string) (MemKind, bool) {
	if name == "lockbits" {
		return KindLock, true
	}
	for k, s := range kindNames {
		if s == name {
			return k, true
		}
	}
	return 0, false
}

// InFlash reports whether the region lives in program flash. Only these
// regions get the trailing-0xFF trim treatment on read.
func (k MemKind) InFlash() bool {
	switch k {
	case KindFlash, KindApplication, KindApptable, KindBoot:
		return true
	}
	return false
}

// PagedAccess reports whether the region may be transferred through a
// backend's bulk paged load/write acceleration.
func (k MemKind) PagedAccess() bool {
	switch k {
	case KindEEPROM, KindFlash, KindApplication, KindApptable, KindBoot,
		KindUsersig, KindProdsig:
		return true
	}
	return false
}

// IsFuse reports whether writes to the region must be mirrored into the
// fuse safety shadow.
func (k MemKind) IsFuse() bool {
	switch k {
	case KindFuse, KindLFuse, KindHFuse, KindEFuse:
		return true
	}
	return false
}

// ReadOnly reports whether the region cannot be written through ISP.
// Same-value writes to read-only regions are tolerated no-ops.
func (k MemKind) ReadOnly() bool {
	switch k {
	case KindSignature, KindCalibration, KindProdsig:
		return true
	}
	return false
}

// Memory describes one non-volatile region of a part.
type Memory struct {
	// Name is the canonical region name ("flash", "lfuse", ...).
	Name string
	Kind MemKind

	// Paged is set for regions written a page at a time: bytes are staged
	// with loadpage instructions and committed with a writepage.
	Paged bool

	// Size is the total region size in bytes. Buf always has exactly this
	// length.
	Size int

	// PageSize and NumPages describe the page geometry; PageSize 0 means
	// the region has no page structure.
	PageSize int
	NumPages int

	// MinWriteDelay and MaxWriteDelay bound the device's self-timed write.
	// The device offers no acknowledge line, so MaxWriteDelay is both the
	// polling deadline and the unconditional wait when polling is not
	// possible.
	MinWriteDelay time.Duration
	MaxWriteDelay time.Duration

	// PwroffAfterWrite flags the chip erratum where the device must be
	// power-cycled after writing this region before it responds again.
	PwroffAfterWrite bool

	// Readback holds the two polled-readback sentinel values. Writing a
	// byte equal to either sentinel cannot be confirmed by tight polling.
	Readback [2]byte

	// Buf is the region's data buffer, allocated once at construction.
	Buf []byte

	// Ops is the instruction table, indexed by isp.Operation. A nil entry
	// means the operation is unsupported for this region.
	Ops [isp.NumOperations]*isp.Opcode
}

// NewMemory returns a Memory with its buffer allocated to exactly size
// bytes. The buffer is never reallocated afterwards.
func NewMemory(name string, kind MemKind, size int) *Memory {
	return &Memory{
		Name: name,
		Kind: kind,
		Size: size,
		Buf:  make([]byte, size),
	}
}

// Op returns the opcode for the given operation, or nil if the region does
// not define it.
func (m *Memory) Op(op isp.Operation) *isp.Opcode {
	if op < 0 || op >= isp.NumOperations {
		return nil
	}
	return m.Ops[op]
}

// WordAddressed reports whether the region is addressed in 16-bit words on
// the wire, indicated by the presence of lo/hi split instructions.
func (m *Memory) WordAddressed() bool {
	return m.Ops[isp.OpLoadPageLo] != nil || m.Ops[isp.OpReadLo] != nil
}

// Clone returns a deep copy of the memory with an independent, zero-filled
// buffer, for use as the second half of an expected/actual verification
// pair. Opcode tables are shared; they are immutable after construction.
func (m *Memory) Clone() *Memory {
	c := *m
	c.Buf = make([]byte, m.Size)
	return &c
}

// HighWater returns the number of "interesting" bytes in the buffer: up to
// the last non-0xFF value, rounded up to an even count because flash is
// word addressed. Trailing erased flash need not be written or kept, so
// reads of flash regions report this trimmed length. Non-flash regions
// always report their full size.
func (m *Memory) HighWater() int {
	if !m.Kind.InFlash() {
		return m.Size
	}
	for i := m.Size - 1; i >= 0; i-- {
		if m.Buf[i] != 0xFF {
			n := i + 1
			if n&1 != 0 {
				n++
			}
			return n
		}
	}
	return 0
}
