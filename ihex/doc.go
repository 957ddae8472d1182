// Package ihex parses Intel HEX firmware files into a flat memory image.
//
// # Overview
//
// Intel HEX is the interchange format AVR toolchains emit: colon-prefixed
// records carrying a byte count, a 16-bit address, a record type, data and
// an 8-bit checksum. The parser handles data records, end-of-file records
// and the extended segment/linear address records that move the 64 KiB
// window, which is enough for every image an 8-bit AVR can hold.
//
// # Usage
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	part := avr.ATmega328P()
//	flash := part.Memory("flash")
//	n := img.CopyTo(flash.Buf)
//
// Gaps between records are filled with 0xFF, matching erased flash, so the
// image can be written as one contiguous region.
package ihex
