package programmer

import (
	"errors"
	"time"

	"github.com/moffa90/go-avrisp/avr"
)

// progressTracker throttles progress reporting to at most one callback per
// whole-percent step. Each operation carries its own tracker, so two
// operations on the same Programmer never share counters.
type progressTracker struct {
	p           *Programmer
	phase       string
	memory      string
	total       int
	start       time.Time
	lastPercent int
}

func (p *Programmer) newTracker(phase, memory string, total int) *progressTracker {
	return &progressTracker{
		p:           p,
		phase:       phase,
		memory:      memory,
		total:       total,
		start:       p.config.Clock.Now(),
		lastPercent: -1,
	}
}

func (t *progressTracker) update(completed int) {
	if t.p.config.ProgressCallback == nil || t.total <= 0 {
		return
	}
	percent := completed * 100 / t.total
	if percent <= t.lastPercent {
		return
	}
	t.lastPercent = percent
	t.p.config.ProgressCallback(Progress{
		Phase:      t.phase,
		Memory:     t.memory,
		Completed:  completed,
		Total:      t.total,
		Percentage: float64(percent),
		Elapsed:    t.p.config.Clock.Now().Sub(t.start),
	})
}

func (t *progressTracker) done(completed int) {
	if t.p.config.ProgressCallback == nil {
		return
	}
	t.p.config.ProgressCallback(Progress{
		Phase:      PhaseComplete,
		Memory:     t.memory,
		Completed:  completed,
		Total:      t.total,
		Percentage: 100,
		Elapsed:    t.p.config.Clock.Now().Sub(t.start),
	})
}

// ReadMemory reads the named memory into its buffer and returns the number
// of meaningful bytes. size limits how much is read; zero or negative
// means the whole memory. The buffer is prefilled with 0xFF so unread
// tail bytes look erased.
//
// Backends with a bulk paged read or a dedicated signature command are used
// when available; on bulk failure the engine falls back to the byte-wise
// path, which works on every backend. Full reads of flash-class memories
// return the trimmed high-water size rather than the raw capacity, so
// callers saving the contents do not archive megabytes of erased 0xFF.
func (p *Programmer) ReadMemory(name string, size int) (int, error) {
	m, err := p.memory(name)
	if err != nil {
		return 0, err
	}
	if size <= 0 || size > m.Size {
		size = m.Size
	}

	for i := 0; i < size; i++ {
		m.Buf[i] = 0xFF
	}

	if m.Kind == avr.KindSignature {
		if sr, ok := p.backend.(SignatureReader); ok {
			return sr.ReadSignature(m)
		}
	}

	tracker := p.newTracker(PhaseReading, m.Name, size)
	tracker.update(0)

	if m.Kind.PagedAccess() && m.PageSize > 0 {
		if pl, ok := p.backend.(PagedLoader); ok {
			n, err := pl.PagedLoad(m, m.PageSize, 0, size)
			if err == nil {
				tracker.done(n)
				return p.trimmed(m, n, size), nil
			}
			p.logDebug("paged load failed, falling back to byte reads",
				"memory", m.Name, "err", err.Error())
		}
	}

	for i := 0; i < size; i++ {
		v, err := p.readByte(m, uint32(i))
		if err != nil {
			return i, err
		}
		m.Buf[i] = v
		tracker.update(i + 1)
	}
	tracker.done(size)

	return p.trimmed(m, size, size), nil
}

// trimmed applies the flash high-water trim to full reads.
func (p *Programmer) trimmed(m *avr.Memory, n, size int) int {
	if m.Kind.InFlash() && size == m.Size {
		return m.HighWater()
	}
	return n
}

// WriteRegion writes the first size bytes of the memory's buffer to the
// device and returns the number of bytes that landed. A size larger than
// the memory is clipped with a warning rather than rejected.
//
// The write is best-effort: a failed byte or page commit is recorded and
// the transfer continues, so one bad cell does not abandon the rest of the
// image. All failures come back together in a RegionWriteError listing the
// affected addresses. Fatal failures (a device whose power state is
// unknown after erratum recovery went wrong) abort immediately.
//
// On paged memories bytes are staged into the device page buffer and each
// page is committed exactly once, when the address crosses out of it or
// the region ends.
func (p *Programmer) WriteRegion(name string, size int) (int, error) {
	m, err := p.memory(name)
	if err != nil {
		return 0, err
	}
	if size <= 0 || size > m.Size {
		if size > m.Size {
			p.logWarn("write request exceeds memory, clipping",
				"memory", m.Name, "requested", size, "capacity", m.Size)
		}
		size = m.Size
	}

	wsize := size
	if m.Paged && m.WordAddressed() && wsize%2 == 1 && wsize < m.Size {
		// Word-programmed flash cannot end mid-word.
		wsize++
	}

	setLED(p.backend, LEDProgram, true)
	defer setLED(p.backend, LEDProgram, false)

	if ws, ok := p.backend.(WriteSetup); ok {
		if err := ws.WriteSetup(m); err != nil {
			return 0, err
		}
	}

	tracker := p.newTracker(PhaseWriting, m.Name, wsize)
	tracker.update(0)

	if m.Kind.PagedAccess() && m.PageSize > 0 {
		if pw, ok := p.backend.(PagedWriter); ok {
			n, err := pw.PagedWrite(m, m.PageSize, 0, wsize)
			if err == nil {
				tracker.done(n)
				p.logInfo("memory written", "memory", m.Name, "bytes", n)
				return n, nil
			}
			p.logDebug("paged write failed, falling back to byte writes",
				"memory", m.Name, "err", err.Error())
		}
	}

	var failed []uint32
	fail := func(addr uint32) {
		failed = append(failed, addr)
		setLED(p.backend, LEDError, true)
	}

	tainted := false
	for i := 0; i < wsize; i++ {
		addr := uint32(i)

		werr := p.writeByte(m, addr, m.Buf[i])
		if errors.Is(werr, ErrRetryAfterRecovery) {
			werr = p.writeByte(m, addr, m.Buf[i])
		}
		if werr != nil {
			if IsFatal(werr) {
				return i, werr
			}
			p.logError("byte write failed", "memory", m.Name,
				"addr", addr, "err", werr.Error())
			fail(addr)
		} else if m.Paged {
			tainted = true
		}

		if m.Paged && tainted && (m.PageSize > 0 && (i+1)%m.PageSize == 0 || i == wsize-1) {
			if cerr := CommitPage(p.backend, m, addr, p.config.Clock); cerr != nil {
				p.logError("page commit failed", "memory", m.Name,
					"addr", addr, "err", cerr.Error())
				fail(addr)
			}
			tainted = false
		}

		tracker.update(i + 1)
	}
	tracker.done(wsize)

	if len(failed) > 0 {
		return wsize - len(failed), &RegionWriteError{Memory: m.Name, Failed: failed}
	}
	p.logInfo("memory written", "memory", m.Name, "bytes", wsize)
	return wsize, nil
}

// Verify compares the first size bytes of two memory buffers, typically a
// freshly read device image against the input image that was written. It
// returns size on success and the first mismatch as a VerificationError.
// Pure buffer comparison, no device traffic.
func Verify(device, input *avr.Memory, size int) (int, error) {
	if size > len(device.Buf) || size > len(input.Buf) {
		n := len(device.Buf)
		if len(input.Buf) < n {
			n = len(input.Buf)
		}
		size = n
	}
	for i := 0; i < size; i++ {
		if device.Buf[i] != input.Buf[i] {
			return i, &VerificationError{
				Memory: device.Name,
				Addr:   uint32(i),
				Device: device.Buf[i],
				Input:  input.Buf[i],
			}
		}
	}
	return size, nil
}
