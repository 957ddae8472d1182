// Package avr models AVR parts and their non-volatile memories for
// in-system programming.
//
// A Part is an ordered set of Memory regions (flash, eeprom, fuses, lock
// bits, signature, ...) plus the part-level timing parameters and opcodes
// used during programming. Each Memory owns a byte buffer of exactly its
// declared size, allocated once at construction, and a table of isp.Opcode
// layouts indexed by operation kind. The structures are built once from
// configuration data and then treated as read-only by the programming
// engine, except for the memory buffers which hold the data being read or
// written.
//
// Memory regions are identified by a closed MemKind taxonomy rather than
// free-form description strings; the kind drives engine dispatch (paged
// access, flash trimming, fuse shadowing, read-only protection).
package avr
