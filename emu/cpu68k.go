package emu

import "github.com/user-none/go-chip-m68k"

// P68K wraps a go-chip-m68k CPU and adapts Bus to m68k.CycleBus. The
// cycle argument of each access is ignored; the VDP takes its notion of
// elapsed time from the CPU's own cycle counter (Cycles). Grounded on
// emu/z80.go's PZ80 wrapper shape (own struct embedding the library's
// core, exposing just the methods the scheduler needs).
type P68K struct {
	cpu *m68k.CPU
	bus *Bus
}

// NewP68K creates a 68000 wired to bus and performs the library's own
// power-on reset (loads SSP from $000000, PC from $000004 out of the
// cartridge's vector table, per the MC68000 reset sequence).
func NewP68K(bus *Bus) *P68K {
	p := &P68K{bus: bus}
	p.cpu = m68k.New(p)
	return p
}

// Step executes one instruction and returns its cycle cost.
func (p *P68K) Step() int { return p.cpu.Step() }

// AddCycles advances the CPU's cycle counter without executing an
// instruction, used to charge DMA/FIFO bus-hold time. Wired as Bus's and
// VDP's burn callback by the scheduler.
func (p *P68K) AddCycles(n uint64) { p.cpu.AddCycles(n) }

// Cycles returns the total elapsed cycle count since reset.
func (p *P68K) Cycles() uint64 { return p.cpu.Cycles() }

// RequestInterrupt queues an autovectored interrupt at the given priority
// level (4 for HINT, 6 for VINT), matching the VDP's PendingInterruptLevel
// values.
func (p *P68K) RequestInterrupt(level uint8) {
	p.cpu.RequestInterrupt(level, nil)
}

// Halted reports whether the CPU has taken a double bus fault.
func (p *P68K) Halted() bool { return p.cpu.Halted() }

// Reset satisfies m68k.Bus; the 68K's own reset is driven externally by
// the scheduler (cartridge insertion / power cycle), not by a device write,
// so this is a no-op bus callback rather than P68K.Reset.
func (p *P68K) Reset() {}

// Read satisfies m68k.Bus for callers without a cycle to report.
func (p *P68K) Read(op m68k.Size, addr uint32) uint32 {
	return p.ReadCycle(p.cpu.Cycles(), op, addr)
}

// Write satisfies m68k.Bus for callers without a cycle to report.
func (p *P68K) Write(op m68k.Size, addr uint32, val uint32) {
	p.WriteCycle(p.cpu.Cycles(), op, addr, val)
}

// ReadCycle and WriteCycle satisfy m68k.CycleBus, dispatching to the
// page-table bus by access width.
func (p *P68K) ReadCycle(cycle uint64, op m68k.Size, addr uint32) uint32 {
	switch op {
	case m68k.Byte:
		return uint32(p.bus.Read8(addr))
	case m68k.Word:
		return uint32(p.bus.Read16(addr))
	default:
		return p.bus.Read32(addr)
	}
}

func (p *P68K) WriteCycle(cycle uint64, op m68k.Size, addr uint32, val uint32) {
	switch op {
	case m68k.Byte:
		p.bus.Write8(addr, uint8(val))
	case m68k.Word:
		p.bus.Write16(addr, uint16(val))
	default:
		p.bus.Write32(addr, val)
	}
}
