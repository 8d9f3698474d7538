package emu

// VDP implements the command-word protocol, register file and VRAM/CRAM/
// VSRAM storage of the video display processor. Rendering (planes,
// sprites, color mixing) lives in gfx.go; DMA in vdpdma.go; HINT/VINT
// generation in vdpirq.go. Grounded in shape on emu/vdp.go's two-write
// latch state machine and per-scanline latch helpers, with the
// command-word bit layout and status-register bits taken from
// original_source/vdp.cpp and vdp.h (the distilled spec's own source).
type VDP struct {
	vram  [0x10000]byte
	cram  [64]uint16
	vsram [64]uint16
	reg   [24]uint8

	addr              uint16
	code              uint8 // 6-bit command code, CD0-CD5
	pendingSecondWord bool
	readBuffer        uint16

	status uint16

	vCounter       int
	lineCounter    int
	lineIntPending bool
	vintPending    bool

	// Per-scanline / per-frame latches (mirrors teacher's hScrollLatch /
	// reg2Latch / cramLatch idiom, generalized to two planes + window).
	cramLatch [64]uint16

	totalScanlines int
	activeHeight   int // 224 (V28) or 240 (V30)
	region         Region

	// Rendering scratch state; see gfx.go.
	gfx gfxState

	// DMA engine state; see vdpdma.go.
	dma dmaState

	// fifo is the 4-deep write FIFO access-slot model; see vdpfifo.go.
	fifo vdpFIFO

	// dmaRead lets the DMA engine pull bytes from the 68K's address space
	// without the VDP importing Bus directly. Wired once by the scheduler.
	dmaRead func(addr uint32) uint8

	// burnFn charges the 68K for cycles lost to DMA/FIFO bus contention.
	// Wired once by the scheduler (P68K.AddCycles).
	burnFn func(cycles uint64)

	// clockFn reports the 68K's own elapsed-cycle counter, the source of
	// "now" in master dots for H-counter generation and FIFO slot timing.
	// Wired once by the scheduler (P68K.Cycles).
	clockFn func() uint64
}

// SetDMASource wires the callback the DMA engine uses to read bytes out
// of the 68K's address space for mode 0/1 (68K-to-VDP) transfers.
func (v *VDP) SetDMASource(read func(addr uint32) uint8) {
	v.dmaRead = read
}

// SetBurner wires the callback used to charge the 68K for DMA bus-hold
// cycles.
func (v *VDP) SetBurner(burn func(cycles uint64)) {
	v.burnFn = burn
}

// SetClock wires the callback reporting the 68K's elapsed cycle count,
// used to derive "now" in master dots for the FIFO and H-counter models.
func (v *VDP) SetClock(clock func() uint64) {
	v.clockFn = clock
}

func (v *VDP) burn(cycles uint64) {
	if v.burnFn != nil {
		v.burnFn(cycles)
	}
}

// nowDots returns the current master-clock position in VDP dots, derived
// from the 68K's own elapsed cycles so that FIFO burns (which advance that
// same counter) are immediately reflected back into "now".
func (v *VDP) nowDots() uint64 {
	if v.clockFn == nil {
		return 0
	}
	return v.clockFn() * M68KDivisor
}

// NewVDP creates a VDP with power-on defaults (display off, NTSC 224-line
// geometry) and a spent line counter so no spurious HINT fires before the
// first real scanline.
func NewVDP() *VDP {
	v := &VDP{
		totalScanlines: 262,
		activeHeight:   224,
		lineCounter:    0xFF,
	}
	v.gfx = *newGfxState()
	return v
}

// SetTotalScanlines configures region timing (262 NTSC / 313 PAL).
func (v *VDP) SetTotalScanlines(n int) { v.totalScanlines = n }

// SetRegion records the machine's broadcast standard so ReadVCounter (and
// the status register's PAL flag) use the right wrap table instead of
// always assuming NTSC.
func (v *VDP) SetRegion(r Region) { v.region = r }

// modeH40 reports the horizontal resolution mode. Resolved per DESIGN
// NOTES open question 2: RS0 (REG[12] bit0) combined with RS1 (bit7) both
// set selects H40 (320px); either clear falls back to H32 (256px).
func (v *VDP) modeH40() bool {
	return v.reg[12]&0x81 == 0x81
}

// ActiveHeight returns the active display height: 240 if REG[1] bit3 (M2,
// V30 mode) is set, else 224.
func (v *VDP) ActiveHeight() int {
	if v.reg[1]&0x08 != 0 {
		return 240
	}
	return 224
}

func (v *VDP) displayEnabled() bool { return v.reg[1]&0x40 != 0 }
func (v *VDP) dmaEnabled() bool     { return v.reg[1]&0x10 != 0 }
func (v *VDP) vintEnabled() bool    { return v.reg[1]&0x20 != 0 }
func (v *VDP) hintEnabled() bool    { return v.reg[0]&0x10 != 0 }

// ReadControl returns the status register. Reading the control port also
// clears the pending second command word, matching real hardware. The
// FIFO empty/full bits and the PAL flag are composed in live rather than
// stored, since both can change without any register write in between.
func (v *VDP) ReadControl() uint16 {
	v.pendingSecondWord = false

	status := v.status
	dots := v.syncFIFO()
	if v.fifo.empty(dots) {
		status |= 0x0200
	}
	if v.fifo.full(dots) {
		status |= 0x0100
	}
	if v.region.PAL {
		status |= 0x0001
	}

	v.status &^= 0x60 // sprite overflow + collision clear on read
	return status
}

// ReadHCounter and ReadVCounter expose the horizontal/vertical counters
// through the control port's alternate read path (bus.go offsets
// $08-$0E), used by raster-timed effects. The H counter is computed live
// from the current master-clock position; the V counter maps the scanline
// last set through SetVCounter onto the region's wrapped counter value.
func (v *VDP) ReadHCounter() uint8 {
	mclk := v.nowDots() % CyclesPerLine
	return hcounterAt(mclk, v.modeH40())
}

func (v *VDP) ReadVCounter() uint8 {
	t := GetTiming(v.region, v.reg[1]&0x08 != 0)
	line := v.vCounter
	if line > t.VCounterWrapAt {
		return uint8(t.VCounterJumpTo + (line - t.VCounterWrapAt - 1))
	}
	return uint8(line)
}

// hcounterAt computes the 9-bit H-counter value for a position mclk dots
// into the current scanline. The Genesis's H-counter isn't linear: it
// free-runs from the line's start, then jumps forward past the point
// where the CRT would be in horizontal blank, so consecutive counter
// reads during active display stay monotonic but the raw dot position
// does not map onto it 1:1.
func hcounterAt(mclk uint64, h40 bool) uint8 {
	if h40 {
		pix := mclk*420/CyclesPerLine + 0xD
		const split = 13 + 320 + 14 + 2
		if pix >= split {
			pix += 0x1C9 - split
		}
		return uint8(pix)
	}
	pix := mclk*342/CyclesPerLine + 0xB
	const split = 13 + 256 + 14 + 2
	if pix >= split {
		pix += 0x1D2 - split
	}
	return uint8(pix)
}

// SetVCounter is called at the start of each scanline, before the CPUs run.
func (v *VDP) SetVCounter(line int) { v.vCounter = line }

const (
	cdVRAMRead   = 0b000000
	cdVRAMWrite  = 0b000001
	cdVSRAMRead  = 0b000100
	cdVSRAMWrite = 0b000101
	cdCRAMRead   = 0b001000
	cdCRAMWrite  = 0b000011
)

// isWriteCode reports whether the latched code targets a write, ignoring
// CD5 (the DMA trigger bit) since a DMA-triggering write command word sets
// CD5 alongside the normal read/write code bits.
func (v *VDP) isWriteCode() bool {
	switch v.code &^ 0x20 {
	case cdVRAMWrite, cdVSRAMWrite, cdCRAMWrite:
		return true
	}
	return false
}

// WriteControl feeds the two-word command latch, per original_source/vdp.cpp's
// control_port_w. A word whose top three bits are 0b100 is a direct
// register write and never enters the two-word latch. Completing a
// write-type command word with CD5 set and DMA enabled (REG[1] bit4)
// triggers the DMA engine (vdpdma.go).
func (v *VDP) WriteControl(value uint16) {
	if value&0xE000 == 0x8000 && !v.pendingSecondWord {
		regNum := (value >> 8) & 0x1F
		if int(regNum) < len(v.reg) {
			v.reg[regNum] = uint8(value)
		}
		v.code &^= 0x3
		v.addr &^= 0x3FFF
		return
	}

	if !v.pendingSecondWord {
		v.addr = (v.addr & 0xC000) | (value & 0x3FFF)
		v.code = (v.code & 0x3C) | uint8((value>>14)&0x3)
		v.pendingSecondWord = true
		return
	}

	v.pendingSecondWord = false
	v.addr = (v.addr & 0x3FFF) | ((value & 0x3) << 14)
	v.code = (v.code & 0x3) | uint8((value>>2)&0x3C)

	if v.code == cdVRAMRead || v.code == cdVRAMWrite {
		v.refillReadBuffer()
	}

	if v.isWriteCode() && v.code&0x20 != 0 && v.dmaEnabled() {
		v.triggerDMA()
	}
}

func (v *VDP) refillReadBuffer() {
	switch v.code &^ 1 {
	case cdVRAMRead:
		v.readBuffer = uint16(v.vram[v.addr])<<8 | uint16(v.vram[(v.addr+1)&0xFFFF])
	case cdCRAMRead:
		v.readBuffer = v.cram[(v.addr>>1)&0x3F]
	case cdVSRAMRead:
		v.readBuffer = v.vsram[(v.addr>>1)&0x3F]
	}
}

// ReadData returns the latched read buffer and advances the address by
// REG[15]'s auto-increment value.
func (v *VDP) ReadData() uint16 {
	v.pendingSecondWord = false
	data := v.readBuffer
	v.advanceAddr()
	v.refillReadBuffer()
	return data
}

// WriteData writes VRAM/CRAM/VSRAM depending on the latched command code
// and advances the address by REG[15]'s auto-increment value. Also feeds
// the VRAM-fill DMA's pending fill value, per original_source/vdp.cpp's
// dma_fill_pending handling.
func (v *VDP) WriteData(value uint16) {
	v.pendingSecondWord = false

	if v.dma.fillPending {
		v.dma.fillValue = uint8(value)
		v.runFillDMA()
		return
	}

	n := uint64(1)
	if v.code&^0x20 == cdVRAMWrite {
		n = 2 // VRAM writes are byte-paired, so they cost two slots
	}
	v.fifoPush(n)
	v.writeTargetWord(value)
}

func (v *VDP) advanceAddr() {
	v.addr += uint16(v.reg[15])
}

// LatchCRAM copies the live CRAM into the rendering snapshot, called once
// per scanline after line-interrupt handlers have had a chance to modify
// palette entries (mirrors emu/vdp.go's LatchCRAM).
func (v *VDP) LatchCRAM() {
	copy(v.cramLatch[:], v.cram[:])
}

// UpdateLineCounter reloads the HINT line counter from REG[10] at line 0,
// then decrements it once per scanline, reloading and raising
// lineIntPending on underflow while in the active display area, and simply
// reloading during vblank — mirroring emu/vdp.go's UpdateLineCounter.
func (v *VDP) UpdateLineCounter() {
	if v.vCounter == 0 {
		v.lineCounter = int(v.reg[10])
	}
	if v.vCounter <= v.ActiveHeight() {
		v.lineCounter--
		if v.lineCounter < 0 {
			v.lineCounter = int(v.reg[10])
			v.lineIntPending = true
		}
	} else {
		v.lineCounter = int(v.reg[10])
	}
}

// GetVRAM/GetCRAM/GetVSRAM/GetRegisters expose raw state for the
// save-state serializer and SAT cache coherence checks.
func (v *VDP) GetVRAM() []byte        { return v.vram[:] }
func (v *VDP) GetCRAM() []uint16      { return v.cram[:] }
func (v *VDP) GetVSRAM() []uint16     { return v.vsram[:] }
func (v *VDP) GetRegisters() []uint8  { return v.reg[:] }
func (v *VDP) GetRegister(n int) uint8 {
	if n < 0 || n >= len(v.reg) {
		return 0
	}
	return v.reg[n]
}
