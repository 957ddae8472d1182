package ihex

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// rec builds a well-formed record line with a valid checksum.
func rec(addr uint16, typ byte, data []byte) string {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	for _, b := range data {
		sum += b
	}
	line := fmt.Sprintf(":%02X%04X%02X", len(data), addr, typ)
	for _, b := range data {
		line += fmt.Sprintf("%02X", b)
	}
	return line + fmt.Sprintf("%02X", -sum&0xFF)
}

const eofRecord = ":00000001FF"

func TestParseReader(t *testing.T) {
	src := strings.Join([]string{
		rec(0x0000, RecordData, []byte{0x0C, 0x94, 0x5C, 0x00}),
		rec(0x0004, RecordData, []byte{0x0C, 0x94, 0x6E, 0x00}),
		eofRecord,
	}, "\n")

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{0x0C, 0x94, 0x5C, 0x00, 0x0C, 0x94, 0x6E, 0x00}
	if !bytes.Equal(img.Data, want) {
		t.Errorf("image = % 02x, want % 02x", img.Data, want)
	}
	if img.Records != 2 {
		t.Errorf("records = %d, want 2", img.Records)
	}
	if img.Size() != 8 {
		t.Errorf("size = %d, want 8", img.Size())
	}
}

func TestParseFillsGapsWithErased(t *testing.T) {
	src := strings.Join([]string{
		rec(0x0000, RecordData, []byte{0x11}),
		rec(0x0004, RecordData, []byte{0x22}),
		eofRecord,
	}, "\n")

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{0x11, 0xFF, 0xFF, 0xFF, 0x22}
	if !bytes.Equal(img.Data, want) {
		t.Errorf("image = % 02x, want % 02x", img.Data, want)
	}
}

func TestParseExtendedSegmentAddress(t *testing.T) {
	// Segment 0x0100 shifts the window to byte address 0x1000.
	src := strings.Join([]string{
		rec(0x0000, RecordExtSegment, []byte{0x01, 0x00}),
		rec(0x0002, RecordData, []byte{0xAA}),
		eofRecord,
	}, "\n")

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Size() != 0x1003 {
		t.Fatalf("size = 0x%X, want 0x1003", img.Size())
	}
	if img.Data[0x1002] != 0xAA {
		t.Errorf("data[0x1002] = 0x%02x, want 0xAA", img.Data[0x1002])
	}
	if img.Data[0] != 0xFF {
		t.Errorf("gap not erased: data[0] = 0x%02x", img.Data[0])
	}
}

func TestParseExtendedLinearAddress(t *testing.T) {
	src := strings.Join([]string{
		rec(0x0000, RecordExtLinear, []byte{0x00, 0x01}),
		rec(0x0000, RecordData, []byte{0xBB}),
		eofRecord,
	}, "\n")

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Size() != 0x10001 {
		t.Fatalf("size = 0x%X, want 0x10001", img.Size())
	}
	if img.Data[0x10000] != 0xBB {
		t.Errorf("data[0x10000] = 0x%02x, want 0xBB", img.Data[0x10000])
	}
}

func TestParseStartRecordsIgnored(t *testing.T) {
	src := strings.Join([]string{
		rec(0x0000, RecordStartLinear, []byte{0x00, 0x00, 0x00, 0x00}),
		rec(0x0000, RecordData, []byte{0x01}),
		eofRecord,
	}, "\n")

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Records != 1 {
		t.Errorf("records = %d, want 1", img.Records)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{
			name:   "missing colon",
			src:    "10010000214601360121470136007EFE09D2190140\n" + eofRecord,
			errMsg: "must start with ':'",
		},
		{
			name:   "record too short",
			src:    ":0000\n" + eofRecord,
			errMsg: "record too short",
		},
		{
			name:   "bad hex",
			src:    ":zz000001FF\n" + eofRecord,
			errMsg: "invalid hex data",
		},
		{
			name:   "checksum mismatch",
			src:    ":0100000011FF\n" + eofRecord,
			errMsg: "checksum mismatch",
		},
		{
			name:   "length mismatch",
			src:    ":0200000011ED\n" + eofRecord,
			errMsg: "length mismatch",
		},
		{
			name:   "unknown record type",
			src:    rec(0, 0x07, nil) + "\n" + eofRecord,
			errMsg: "unknown record type",
		},
		{
			name:   "record after eof",
			src:    rec(0, RecordData, []byte{1}) + "\n" + eofRecord + "\n" + rec(0, RecordData, []byte{2}),
			errMsg: "after end-of-file",
		},
		{
			name:   "missing eof",
			src:    rec(0, RecordData, []byte{1}),
			errMsg: "missing end-of-file",
		},
		{
			name:   "no data records",
			src:    eofRecord,
			errMsg: "no data records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReader(strings.NewReader(tt.src))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestParseClassicRecord(t *testing.T) {
	// The record from the Intel HEX specification's own example.
	src := ":10010000214601360121470136007EFE09D2190140\n" + eofRecord

	img, err := ParseReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Size() != 0x0110 {
		t.Errorf("size = 0x%X, want 0x0110", img.Size())
	}
	if img.Data[0x0100] != 0x21 || img.Data[0x010F] != 0x01 {
		t.Errorf("data boundaries = 0x%02x/0x%02x", img.Data[0x0100], img.Data[0x010F])
	}
}

func TestCopyTo(t *testing.T) {
	img := &Image{Data: []byte{1, 2, 3, 4, 5, 6}}

	buf := make([]byte, 4)
	if n := img.CopyTo(buf); n != 4 {
		t.Errorf("truncated copy n = %d, want 4", n)
	}

	big := make([]byte, 16)
	if n := img.CopyTo(big); n != 6 {
		t.Errorf("full copy n = %d, want 6", n)
	}
}
