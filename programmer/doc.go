// Package programmer provides the transport-independent engine for reading
// and writing AVR device memories over the in-system programming protocol.
//
// # Overview
//
// The engine sits between part descriptors (package avr) and a transport
// backend. It synthesizes every memory operation from the part's opcode
// tables and the backend's single mandatory primitive, a raw 4-byte
// instruction exchange:
//   - Byte reads and verified byte writes with readback polling
//   - Page staging and page commits on paged memories
//   - Bulk region reads and best-effort region writes
//   - Chip erase, program enable, signature and erase cycle bookkeeping
//
// # Basic Usage
//
//	port, err := avr910.Open("/dev/ttyUSB0", 19200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := programmer.New(port, avr.ATmega328P())
//
//	if err := prog.ProgramEnable(); err != nil {
//	    log.Fatal(err)
//	}
//
//	n, err := prog.ReadMemory("flash", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("read %d bytes\n", n)
//
// # Backend Capabilities
//
// A backend must implement Backend (the raw frame exchange). Everything
// else is optional: backends advertise native accelerations such as bulk
// paged transfers or a dedicated signature read by implementing the
// corresponding capability interface, and the engine discovers them with
// type assertions. A backend that handles some memories natively can
// delegate the rest to ReadByteDefault and WriteByteDefault.
//
// # Write Verification
//
// Byte writes are confirmed by polling the device until the written value
// reads back, bounded by the memory's worst-case write time. Writes of a
// value equal to the memory's busy sentinel cannot be polled and fall back
// to a fixed delay plus one confirmatory read. Confirmed mismatches are
// retried a bounded number of times before a VerifyTimeoutError.
//
// # Progress Tracking
//
//	prog := programmer.New(port, part,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %s %.0f%%\n", p.Phase, p.Memory, p.Percentage)
//	    }),
//	)
//
// # Logging
//
// Integrate with any logging framework through the Logger interface:
//
//	prog := programmer.New(port, part, programmer.WithLogger(myLogger))
//
// # Error Handling
//
// The package reports failures as structured error types:
//   - MemoryNotFoundError, OpNotSupportedError: descriptor gaps
//   - CommError: transport failure
//   - VerifyTimeoutError: a write never read back correctly
//   - RegionWriteError: addresses that failed during a bulk write
//   - RecoveryError: power-cycle recovery failed; IsFatal reports true
//
// The engine never terminates the process. Fatal conditions are surfaced
// as errors for which IsFatal returns true, and the caller decides.
package programmer
