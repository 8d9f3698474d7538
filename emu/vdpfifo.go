package emu

// VDP write FIFO / access-slot model. Real hardware grants the data port
// one "access slot" every fixed number of master-clock dots; a slot's
// length depends on horizontal mode and whether the display is actively
// fetching tiles or idle (vblank/disabled). A 4-deep FIFO holds pending
// writes; once all four slots are claimed, the 68K stalls until the
// oldest has drained. Grounded on original_source/vdp.cpp's fifo_push/
// fifo_full bookkeeping, generalized from that fixed-cost model to the
// documented per-mode slot table.
const (
	slotPeriodH32Active = 16
	slotPeriodH32Blank  = 161
	slotPeriodH40Active = 18
	slotPeriodH40Blank  = 198
)

// vdpFIFO tracks up to 4 pending data-port writes as completion slot
// numbers. The slot counter is kept as an anchor (baseSlot at baseDots)
// plus the current period, so changing horizontal mode or display state
// re-anchors instead of retroactively shifting slots already claimed.
type vdpFIFO struct {
	pending  []uint64 // completion slot numbers, oldest first, len <= 4
	baseSlot uint64
	baseDots uint64
	period   uint64 // dots per slot at the current anchor; 0 == uninitialized
}

func (f *vdpFIFO) slotAt(dots uint64) uint64 {
	if f.period == 0 || dots <= f.baseDots {
		return f.baseSlot
	}
	return f.baseSlot + (dots-f.baseDots)/f.period
}

func (f *vdpFIFO) reanchor(dots, period uint64) {
	if period == f.period {
		return
	}
	f.baseSlot = f.slotAt(dots)
	f.baseDots = dots
	f.period = period
}

func (f *vdpFIFO) drain(dots uint64) {
	now := f.slotAt(dots)
	for len(f.pending) > 0 && f.pending[0] <= now {
		f.pending = f.pending[1:]
	}
}

func (f *vdpFIFO) empty(dots uint64) bool {
	if len(f.pending) == 0 {
		return true
	}
	return f.slotAt(dots) >= f.pending[0]
}

func (f *vdpFIFO) full(dots uint64) bool {
	if len(f.pending) < 4 {
		return false
	}
	return f.slotAt(dots) < f.pending[len(f.pending)-1]
}

// push admits a new write claiming n slots after whichever is later: the
// current slot, or the newest pending entry (writes retire in order).
func (f *vdpFIFO) push(dots, n uint64) {
	base := f.slotAt(dots)
	if last := len(f.pending) - 1; last >= 0 && f.pending[last] > base {
		base = f.pending[last]
	}
	f.pending = append(f.pending, base+n)
}

// fifoPeriod reports the current slot length in dots, per the documented
// H32/H40 x active/blanked table. Vblank and a disabled display share the
// same (cheaper) period since neither is fetching tiles.
func (v *VDP) fifoPeriod() uint64 {
	idle := !v.displayEnabled() || v.status&0x08 != 0
	switch {
	case v.modeH40() && idle:
		return slotPeriodH40Blank
	case v.modeH40():
		return slotPeriodH40Active
	case idle:
		return slotPeriodH32Blank
	default:
		return slotPeriodH32Active
	}
}

// syncFIFO re-anchors the slot counter to the current mode/dots and
// drains any entries that have since completed, returning "now" in dots.
func (v *VDP) syncFIFO() uint64 {
	dots := v.nowDots()
	v.fifo.reanchor(dots, v.fifoPeriod())
	v.fifo.drain(dots)
	return dots
}

// FIFOEmpty and FIFOFull expose the FIFO's occupancy for status-register
// composition and tests.
func (v *VDP) FIFOEmpty() bool {
	dots := v.syncFIFO()
	return v.fifo.empty(dots)
}

func (v *VDP) FIFOFull() bool {
	dots := v.syncFIFO()
	return v.fifo.full(dots)
}

// fifoPush admits one data-port write of n slots' cost. If the FIFO is
// already full, the 68K is burned forward until the oldest entry has
// drained before the new write is accepted, modeling the documented
// backpressure a 5th queued write causes.
func (v *VDP) fifoPush(n uint64) {
	dots := v.syncFIFO()
	if v.fifo.full(dots) {
		target := v.fifo.pending[0]
		now := v.fifo.slotAt(dots)
		if target > now {
			waitDots := (target - now) * v.fifo.period
			v.burn((waitDots + M68KDivisor - 1) / M68KDivisor)
			dots = v.syncFIFO()
		}
	}
	v.fifo.push(dots, n)
}
