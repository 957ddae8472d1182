package programmer

import (
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-avrisp/avr"
)

func TestWriteByteSameValueSkips(t *testing.T) {
	sim := newSimBackend()
	sim.eeprom[5] = 0x42
	clk := newFakeClock()
	prog := New(sim, avr.ATmega328P(), WithClock(clk))

	if err := prog.WriteByte("eeprom", 5, 0x42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.eepromWrites != 0 {
		t.Errorf("device written %d times for a same-value write, want 0", sim.eepromWrites)
	}
	if sim.cmds != 1 {
		t.Errorf("transactions = %d, want exactly the probe read", sim.cmds)
	}
}

func TestWriteByteStoresAndVerifies(t *testing.T) {
	sim := newSimBackend()
	clk := newFakeClock()
	prog := New(sim, avr.ATmega328P(), WithClock(clk))

	if err := prog.WriteByte("eeprom", 9, 0x37); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.eeprom[9] != 0x37 {
		t.Errorf("eeprom[9] = 0x%02x, want 0x37", sim.eeprom[9])
	}
	if sim.eepromWrites != 1 {
		t.Errorf("write issued %d times, want 1", sim.eepromWrites)
	}
}

func TestWriteByteRetriesExhausted(t *testing.T) {
	drop := &droppingBackend{simBackend: newSimBackend()}
	clk := newFakeClock()
	prog := New(drop, avr.ATmega328P(), WithClock(clk))

	err := prog.WriteByte("eeprom", 0, 0x11)
	var vte *VerifyTimeoutError
	if !errors.As(err, &vte) {
		t.Fatalf("error = %v, want VerifyTimeoutError", err)
	}
	if vte.Attempts != 6 {
		t.Errorf("attempts = %d, want 6 (1 + 5 retries)", vte.Attempts)
	}
	if drop.droppedWrites != 6 {
		t.Errorf("write instruction issued %d times, want 6", drop.droppedWrites)
	}
	if vte.Want != 0x11 || vte.Got != 0x00 {
		t.Errorf("want/got = 0x%02x/0x%02x", vte.Want, vte.Got)
	}
}

func TestWriteByteSentinelValue(t *testing.T) {
	// 0xFF equals the readback sentinel: polling is impossible, so the
	// engine must sleep the full write delay and take one confirming read.
	sim := newSimBackend()
	sim.eeprom[3] = 0x00
	clk := newFakeClock()
	prog := New(sim, avr.ATmega328P(), WithClock(clk))

	if err := prog.WriteByte("eeprom", 3, 0xFF); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delay := avr.ATmega328P().MemoryOf(avr.KindEEPROM).MaxWriteDelay
	if !clk.slept(delay) {
		t.Errorf("missing full write-delay sleep of %v, got %v", delay, clk.sleeps)
	}
	if sim.eeprom[3] != 0xFF {
		t.Errorf("eeprom[3] = 0x%02x, want 0xFF", sim.eeprom[3])
	}
}

func TestWriteByteReadOnlyMemory(t *testing.T) {
	sim := newSimBackend()
	clk := newFakeClock()
	prog := New(sim, avr.ATmega328P(), WithClock(clk))

	// Writing the value already present is a tolerated no-op.
	if err := prog.WriteByte("signature", 0, 0x1E); err != nil {
		t.Fatalf("same-value write to signature: %v", err)
	}

	err := prog.WriteByte("signature", 0, 0x00)
	var roErr *ReadOnlyError
	if !errors.As(err, &roErr) {
		t.Fatalf("error = %v, want ReadOnlyError", err)
	}
}

func TestWriteByteNoWriteOpcode(t *testing.T) {
	m := avr.NewMemory("usersig", avr.KindUsersig, 16)
	clk := newFakeClock()
	sim := newSimBackend()

	err := writeByteVerified(sim, avr.ATmega328P(), m, 0, 0x55, clk, readByteDispatch(sim))
	var opErr *OpNotSupportedError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OpNotSupportedError", err)
	}
}

func TestWriteBytePagedStagesOnly(t *testing.T) {
	sim := newSimBackend()
	clk := newFakeClock()
	prog := New(sim, avr.ATmega328P(), WithClock(clk))

	if err := prog.WriteByte("flash", 2, 0xAB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.flash[2] != 0x00 {
		t.Error("paged write reached the array before commit")
	}
	if sim.page[2] != 0xAB {
		t.Errorf("page buffer[2] = 0x%02x, want 0xAB", sim.page[2])
	}
	if len(clk.sleeps) != 0 {
		t.Errorf("paged byte write slept %v, want no delay until commit", clk.sleeps)
	}
}

func TestCommitPage(t *testing.T) {
	sim := newSimBackend()
	clk := newFakeClock()
	part := avr.ATmega328P()
	flash := part.MemoryOf(avr.KindFlash)
	prog := New(sim, part, WithClock(clk))

	for i, v := range []byte{0xDE, 0xAD, 0xBE, 0xEF} {
		if err := prog.WriteByte("flash", uint32(i), v); err != nil {
			t.Fatalf("stage byte %d: %v", i, err)
		}
	}
	if err := CommitPage(sim, flash, 3, clk); err != nil {
		t.Fatalf("commit: %v", err)
	}

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i, v := range want {
		if sim.flash[i] != v {
			t.Errorf("flash[%d] = 0x%02x, want 0x%02x", i, sim.flash[i], v)
		}
	}
	if sim.pageCommits != 1 {
		t.Errorf("page commits = %d, want 1", sim.pageCommits)
	}
	if !clk.slept(flash.MaxWriteDelay) {
		t.Error("commit did not wait the write delay")
	}
}

func TestCommitPageUnsupported(t *testing.T) {
	part := avr.ATmega328P()
	err := CommitPage(newSimBackend(), part.MemoryOf(avr.KindEEPROM), 0, newFakeClock())
	var opErr *OpNotSupportedError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OpNotSupportedError", err)
	}
}

func TestWriteByteErrataRecovery(t *testing.T) {
	pb := &powerBackend{droppingBackend: droppingBackend{simBackend: newSimBackend()}}
	clk := newFakeClock()
	part := avr.ATmega328P()
	m := part.MemoryOf(avr.KindEEPROM).Clone()
	m.PwroffAfterWrite = true

	err := writeByteVerified(pb, part, m, 0, 0x21, clk, readByteDispatch(pb))
	if !errors.Is(err, ErrRetryAfterRecovery) {
		t.Fatalf("error = %v, want ErrRetryAfterRecovery", err)
	}
	if pb.downs != 1 || pb.ups != 1 || pb.inits != 1 {
		t.Errorf("power cycle calls = %d/%d/%d, want 1/1/1", pb.downs, pb.ups, pb.inits)
	}
	if !clk.slept(recoveryPowerOffDelay) {
		t.Error("recovery skipped the power-off dwell")
	}
	if IsFatal(err) {
		t.Error("successful recovery must not be fatal")
	}
}

func TestWriteByteRecoveryFailureIsFatal(t *testing.T) {
	pb := &powerBackend{
		droppingBackend: droppingBackend{simBackend: newSimBackend()},
		downErr:         errors.New("relay stuck"),
	}
	clk := newFakeClock()
	part := avr.ATmega328P()
	m := part.MemoryOf(avr.KindEEPROM).Clone()
	m.PwroffAfterWrite = true

	err := writeByteVerified(pb, part, m, 0, 0x21, clk, readByteDispatch(pb))
	var rec *RecoveryError
	if !errors.As(err, &rec) {
		t.Fatalf("error = %v, want RecoveryError", err)
	}
	if !IsFatal(err) {
		t.Error("failed recovery must be fatal")
	}
}

func TestReadByteDefault(t *testing.T) {
	sim := newSimBackend()
	sim.flash[4] = 0xAA
	sim.flash[5] = 0xBB
	flash := avr.ATmega328P().MemoryOf(avr.KindFlash)

	lo, err := ReadByteDefault(sim, flash, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hi, err := ReadByteDefault(sim, flash, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lo != 0xAA || hi != 0xBB {
		t.Errorf("read 0x%02x/0x%02x, want 0xAA/0xBB", lo, hi)
	}
}

func TestReadByteDefaultUnsupported(t *testing.T) {
	m := avr.NewMemory("usersig", avr.KindUsersig, 16)
	_, err := ReadByteDefault(newSimBackend(), m, 0)
	var opErr *OpNotSupportedError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OpNotSupportedError", err)
	}
}

func TestPollBoundedByDeadline(t *testing.T) {
	// A backend that always reads back the wrong value must not poll
	// forever: the deadline from the fake clock has to end each attempt.
	drop := &droppingBackend{simBackend: newSimBackend()}
	clk := newFakeClock()
	part := avr.ATmega328P()
	m := part.MemoryOf(avr.KindEEPROM)

	start := time.Now()
	err := writeByteVerified(drop, part, m, 1, 0x66, clk, readByteDispatch(drop))
	if err == nil {
		t.Fatal("expected failure")
	}
	if time.Since(start) > time.Second {
		t.Error("write attempt did not terminate promptly under fake clock")
	}
}
