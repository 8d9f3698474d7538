package emu

import "image"

// Machine is the cooperative dual-CPU scheduler: it owns the 68000, the
// Z80, the VDP and the shared Bus, and steps them scanline-by-scanline
// against a shared master-clock budget. Adapted from emu/emulator.go's
// EmulatorBase/runScanlines (single-CPU, cycles-per-scanline fixed-point
// accumulator) generalized to two independently-clocked CPUs racing toward
// the same per-line dot budget, with DMA/FIFO bus-hold time charged back
// through Bus.SetBurner/VDP.SetBurner instead of being free.
type Machine struct {
	cpu *P68K
	z80 *PZ80
	vdp *VDP
	bus *Bus
	io  *IOPorts
	ym  FMCore
	psg *PSGStub

	region Region
	timing RegionTiming

	frameCount uint64
}

// NewMachine builds a fully wired Genesis: Bus, VDP, I/O ports, Z80 and
// 68K, with the cross-component callbacks (burn, DMA source) connected
// after construction to break the construction-order cycle between Bus/VDP
// and the CPU wrappers, each of which needs the other to exist first (see
// bus.go/vdp.go's SetBurner doc comments).
func NewMachine(rom []byte, region Region) *Machine {
	cart := NewCartridge(rom)
	vdp := NewVDP()
	io := NewIOPorts(region)
	ym := NewSilentFMCore()
	psg := NewPSGStub(int(NTSCMasterFreq/Z80Divisor), 48000, 1600)

	bus := NewBus(rom, cart, vdp, io, nil, ym, psg)
	z80 := NewPZ80(bus)
	bus.z80 = z80
	cpu := NewP68K(bus)

	bus.SetBurner(cpu.AddCycles)
	vdp.SetBurner(cpu.AddCycles)
	vdp.SetDMASource(bus.Read8)
	vdp.SetClock(cpu.Cycles)

	m := &Machine{cpu: cpu, z80: z80, vdp: vdp, bus: bus, io: io, ym: ym, psg: psg}
	m.SetRegion(region)
	return m
}

// SetRegion reconfigures scanline geometry for the given broadcast
// standard, keeping V28/V30 active height in sync with the VDP's own
// REG[1] bit3 setting.
func (m *Machine) SetRegion(region Region) {
	m.region = region
	m.timing = GetTiming(region, m.vdp.ActiveHeight() == 240)
	m.vdp.SetTotalScanlines(m.timing.ScanlinesPerFrame)
	m.vdp.SetRegion(region)
}

// SetInput forwards controller line state to the I/O ports (button/bit
// mapping itself is an external collaborator: the CLI/host layer decides
// which physical keys set which lines).
func (m *Machine) SetInput(port int, lines uint8) {
	m.io.SetInput(port, lines)
}

// Framebuffer returns the VDP's rendered image for the last completed
// frame.
func (m *Machine) Framebuffer() *image.RGBA { return m.vdp.Framebuffer() }

// RunFrame advances the machine by one full frame: all scanlines including
// vblank, firing HINT/VINT at the appropriate raster positions and handing
// them to the 68K (and to the Z80, gated on REG[11] bit3 on real hardware;
// simplified here to always follow the 68K's VINT per DESIGN.md).
func (m *Machine) RunFrame() {
	activeHeight := m.vdp.ActiveHeight()

	for line := 0; line < m.timing.ScanlinesPerFrame; line++ {
		m.vdp.SetVCounter(line)
		m.vdp.UpdateLineCounter()

		if line == activeHeight {
			m.vdp.SetVBlank()
		} else if line == 0 {
			m.vdp.ClearVBlank()
			m.z80.SetIRQ(false) // VINT line is level-triggered for one frame, released at the top of the next
		}

		m.vdp.LatchCRAM()
		if line < activeHeight {
			m.vdp.RenderScanline(line)
		}

		m.runLine()
		m.dispatchInterrupts()
		m.psg.GenerateSamples(CyclesPerLine / Z80Divisor)
	}

	m.frameCount++
}

// AudioBuffer drains the PSG's buffered samples for the frame just run,
// handing them to the host audio layer the same way emu/emulator.go's
// runScanlines accumulated them per scanline.
func (m *Machine) AudioBuffer() ([]float32, int) {
	return m.psg.GetBuffer()
}

// runLine races the 68K and Z80 forward by one scanline's worth of
// master-clock dots, each core converting its own native cycle cost into
// dots via the fixed 7:1 (68K) / 14:1 (Z80) master-clock division.
func (m *Machine) runLine() {
	targetDots := uint64(CyclesPerLine)
	var dots68, dotsZ uint64

	for dots68 < targetDots || dotsZ < targetDots {
		if dots68 < targetDots {
			if !m.cpu.Halted() {
				c := m.cpu.Step()
				dots68 += uint64(c) * M68KDivisor
			} else {
				dots68 = targetDots
			}
		}
		if dotsZ < targetDots {
			c := m.z80.Step()
			if c == 0 {
				dotsZ = targetDots // bus granted to 68K, or genuinely stalled
			} else {
				dotsZ += uint64(c) * Z80Divisor
			}
		}
	}
}

// dispatchInterrupts samples the VDP's pending interrupt level and hands
// it to the 68K, acknowledging the one-shot flag once accepted.
func (m *Machine) dispatchInterrupts() {
	level := m.vdp.PendingInterruptLevel()
	if level == 0 {
		return
	}
	m.cpu.RequestInterrupt(level)
	m.vdp.AcknowledgeInterrupt(level)

	if level == 6 { // VINT also drives the Z80's maskable interrupt line
		m.z80.SetIRQ(true)
	}
}
