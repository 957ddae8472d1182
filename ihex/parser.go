package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record types defined by the Intel HEX specification.
const (
	// RecordData carries image bytes.
	RecordData = 0x00

	// RecordEOF terminates the file.
	RecordEOF = 0x01

	// RecordExtSegment sets bits 4-19 of the load address.
	RecordExtSegment = 0x02

	// RecordStartSegment carries the CS:IP start address (ignored).
	RecordStartSegment = 0x03

	// RecordExtLinear sets the upper 16 bits of the load address.
	RecordExtLinear = 0x04

	// RecordStartLinear carries the 32-bit start address (ignored).
	RecordStartLinear = 0x05
)

// MinimumRecordLength is the shortest possible record in hex characters:
// count(2) + address(4) + type(2) + checksum(2).
const MinimumRecordLength = 10

// MaxImageSize bounds how large an image a HEX file may describe. AVR
// flash tops out well below this; anything bigger is a corrupt file, not a
// firmware.
const MaxImageSize = 16 << 20

// Parse parses an Intel HEX file from the given file path.
//
// Example:
//
//	img, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("image size: %d bytes\n", img.Size())
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX stream from any io.Reader. This is
// useful for testing and reading from non-file sources.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)
	img := &Image{}

	// Offset installed by the last extended address record, added to every
	// data record's 16-bit address.
	var base uint32
	sawEOF := false
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("line %d: record after end-of-file record", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.typ {
		case RecordData:
			addr := base + uint32(rec.addr)
			end := int(addr) + len(rec.data)
			if end > MaxImageSize {
				return nil, fmt.Errorf("line %d: address 0x%X exceeds maximum image size", lineNum, addr)
			}
			img.grow(end)
			copy(img.Data[addr:], rec.data)
			img.Records++

		case RecordEOF:
			sawEOF = true

		case RecordExtSegment:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended segment record needs 2 data bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4

		case RecordExtLinear:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear record needs 2 data bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16

		case RecordStartSegment, RecordStartLinear:
			// Entry-point records; irrelevant for flashing.

		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.typ)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if !sawEOF {
		return nil, fmt.Errorf("missing end-of-file record")
	}
	if img.Records == 0 {
		return nil, fmt.Errorf("no data records found in file")
	}

	return img, nil
}

type record struct {
	typ  byte
	addr uint16
	data []byte
}

// parseRecord decodes and checksums one ":LLAAAATTdd..CC" line.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}
	line = line[1:]

	if len(line) < MinimumRecordLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d", len(line), MinimumRecordLength)
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	count := int(raw[0])
	if len(raw) != count+5 {
		return nil, fmt.Errorf("length mismatch: record declares %d data bytes but carries %d", count, len(raw)-5)
	}

	// The checksum byte makes the whole record sum to zero mod 256.
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("checksum mismatch: record sums to 0x%02X, want 0x00", sum)
	}

	return &record{
		typ:  raw[3],
		addr: uint16(raw[1])<<8 | uint16(raw[2]),
		data: raw[4 : 4+count],
	}, nil
}
