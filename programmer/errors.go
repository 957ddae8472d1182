package programmer

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-avrisp/isp"
)

// ErrRetryAfterRecovery is returned by a verified byte write when the
// device had to be power-cycled to recover from the write erratum and the
// recovery succeeded. The device is alive again but the byte did not land;
// the caller must retry the write.
var ErrRetryAfterRecovery = errors.New("device recovered by power cycle, write must be retried")

// MemoryNotFoundError indicates that the part defines no memory region with
// the requested name. Configuration error: not retried, scoped to this
// operation only.
type MemoryNotFoundError struct {
	Part   string
	Memory string
}

func (e *MemoryNotFoundError) Error() string {
	return fmt.Sprintf("part %s has no %q memory", e.Part, e.Memory)
}

// OpNotSupportedError indicates that the opcode table defines no
// instruction for the attempted operation on this memory. Configuration
// error: other operations on the same part remain usable.
type OpNotSupportedError struct {
	Memory string
	Op     isp.Operation
}

func (e *OpNotSupportedError) Error() string {
	return fmt.Sprintf("%s operation not supported on memory %s", e.Op, e.Memory)
}

// ReadOnlyError indicates an attempt to change the contents of a read-only
// memory region. Writing the value a read-only location already holds is a
// tolerated no-op and does not produce this error.
type ReadOnlyError struct {
	Memory string
	Addr   uint32
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("cannot write to read-only memory %s at 0x%04x", e.Memory, e.Addr)
}

// CommError wraps a backend primitive failure. Communication errors are
// surfaced, never retried by the engine.
type CommError struct {
	Op   string
	Addr uint32
	Err  error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("%s failed at 0x%04x: %v", e.Op, e.Addr, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// ProbeError indicates that the pre-write readback probe (the check that
// lets the engine skip writing an already-present value) failed with a
// communication error rather than an unsupported-read condition.
type ProbeError struct {
	Addr uint32
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("readback probe failed at 0x%04x: %v", e.Addr, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// PollError indicates that a post-write confirmation read failed.
// AfterDelay distinguishes the single confirmatory read after a full
// write-delay sleep (taken when the written value collides with a readback
// sentinel) from a read inside the tight polling loop.
type PollError struct {
	Addr       uint32
	AfterDelay bool
	Err        error
}

func (e *PollError) Error() string {
	which := "poll read"
	if e.AfterDelay {
		which = "post-delay confirmation read"
	}
	return fmt.Sprintf("%s failed at 0x%04x: %v", which, e.Addr, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// VerifyTimeoutError indicates that a written byte never read back as the
// written value within the memory's write deadline, across all permitted
// attempts.
type VerifyTimeoutError struct {
	Memory   string
	Addr     uint32
	Want     byte
	Got      byte
	Attempts int
}

func (e *VerifyTimeoutError) Error() string {
	return fmt.Sprintf("write verification failed on %s at 0x%04x after %d attempts: wrote 0x%02x, read 0x%02x",
		e.Memory, e.Addr, e.Attempts, e.Want, e.Got)
}

// RecoveryError indicates that power-cycle recovery from the
// write-then-power-off erratum failed. The device's power state is unknown;
// this error is unrecoverable and the run must stop.
type RecoveryError struct {
	Err error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("device re-initialization after power cycle failed, power state unknown: %v", e.Err)
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// Fatal marks the error as unrecoverable for IsFatal.
func (e *RecoveryError) Fatal() bool { return true }

// IsFatal reports whether err (or anything it wraps) is unrecoverable and
// must terminate the run. The engine never terminates the process itself;
// this is the signal the top-level caller acts on.
func IsFatal(err error) bool {
	for err != nil {
		if f, ok := err.(interface{ Fatal() bool }); ok && f.Fatal() {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// RegionWriteError reports the addresses that could not be written or
// committed during a bulk region write. The write is best-effort: bytes
// after a failure are still attempted.
type RegionWriteError struct {
	Memory string
	Failed []uint32
}

func (e *RegionWriteError) Error() string {
	if len(e.Failed) == 1 {
		return fmt.Sprintf("write to %s failed at address 0x%04x", e.Memory, e.Failed[0])
	}
	return fmt.Sprintf("write to %s failed at %d addresses, first 0x%04x",
		e.Memory, len(e.Failed), e.Failed[0])
}

// VerificationError reports the first mismatch between a device buffer and
// an input buffer.
type VerificationError struct {
	Memory string
	Addr   uint32
	Device byte
	Input  byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification mismatch on %s: device 0x%02x != input 0x%02x at addr 0x%04x",
		e.Memory, e.Device, e.Input, e.Addr)
}

// SignatureMismatchError indicates the device signature does not match the
// part descriptor the Programmer was created with.
type SignatureMismatchError struct {
	Part     string
	Expected [3]byte
	Actual   [3]byte
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("device signature %02x%02x%02x does not match %s (expected %02x%02x%02x)",
		e.Actual[0], e.Actual[1], e.Actual[2], e.Part,
		e.Expected[0], e.Expected[1], e.Expected[2])
}

// ProgramEnableError indicates the target did not echo the program-enable
// instruction, meaning the device is out of sync or not responding.
type ProgramEnableError struct {
	Cmd [4]byte
	Res [4]byte
}

func (e *ProgramEnableError) Error() string {
	return fmt.Sprintf("program enable not acknowledged: sent % 02x, got % 02x", e.Cmd, e.Res)
}
