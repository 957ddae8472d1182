// Package avr910 implements the AVR910 application-note serial protocol
// spoken by classic serial programmers and many bootloaders (AVR Butterfly,
// AVR109 derivatives).
//
// # Overview
//
// The protocol is single-character commands over a serial line, most of
// them acknowledged with a carriage return. Flash is addressed in words
// with separate low/high byte commands; firmwares optionally support
// address auto-increment and buffered block transfers, both of which are
// probed during initialization and used when present.
//
// The Programmer type implements the engine's Backend contract plus the
// native byte, paged, signature, erase and program-enable capabilities.
// Memories the firmware has no native commands for (fuses, lock bits) are
// delegated back to the engine's instruction-synthesis path through the
// universal command.
//
// # Usage
//
//	port, err := avr910.Open("/dev/ttyUSB0", 19200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	part := avr.ATmega328P()
//	if err := port.Initialize(part); err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := programmer.New(port, part)
//
// Any io.ReadWriter works as the transport, which keeps the package
// testable without hardware:
//
//	dev := avr910.New(myTransport)
package avr910
