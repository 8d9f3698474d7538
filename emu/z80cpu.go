package emu

import "github.com/koron-go/z80"

// Z80Bus adapts Z80RAM and the bank-switched 68K window into the
// z80.Memory interface the koron-go/z80 core requires, mirroring
// emu/mem.go's Memory.Get/Set range-switch idiom but scoped to the Z80's
// own 16-bit address space plus its bank-switched view onto the 68K bus.
type Z80Bus struct {
	ram  *Z80RAM
	bank *uint32 // 9-bit bank register << 15, shared with PZ80
	bus  *Bus
}

func (m *Z80Bus) Get(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return m.ram.Get(addr)
	case addr >= 0x4000 && addr < 0x4004:
		return 0xFF // YM2612 registers, write-mostly from the Z80 side
	case addr >= 0x8000:
		return m.bus.Read8(*m.bank | uint32(addr&0x7FFF))
	default:
		return 0xFF
	}
}

func (m *Z80Bus) Set(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		m.ram.Set(addr, val)
	case addr >= 0x4000 && addr < 0x4004:
		// YM2612 register/data port writes are serviced through the 68K
		// bus's own $A0 window (bus.go writeA0); the Z80 has no separate
		// path to the FM chip worth modeling beyond that.
	case addr >= 0x8000:
		m.bus.Write8(*m.bank|uint32(addr&0x7FFF), val)
	}
}

// z80NullIO satisfies z80.IO for a CPU that never executes IN/OUT: the
// Genesis wires the YM2612 and bank register through memory-mapped
// addresses, not the Z80's I/O space.
type z80NullIO struct{}

func (z80NullIO) In(port uint16) uint8       { return 0xFF }
func (z80NullIO) Out(port uint16, val uint8) {}

// PZ80 wraps a koron-go/z80 CPU with the Genesis's BUSREQ/RESET handshake
// and bank-register addressing, adapted from emu/z80.go's CycleZ80 (same
// hand-rolled per-opcode cycle tables, since the library's Step() does not
// report a cost) generalized to the Genesis's bus-arbitration model instead
// of the SMS's always-running Z80.
type PZ80 struct {
	cpu     *z80.CPU
	ramBack Z80RAM
	membus  *Z80Bus
	bank    uint32
	bankBit uint8 // next bit position to shift into the bank register

	busRequested bool // 68K asserting BUSREQ (wants the bus)
	resetLine    bool // current level of the reset line
	resetOnce    bool // latches true the first time a full reset pulse completes
	resetStart   uint64
	clock        uint64
	afterEI      bool

	bus *Bus
}

// NewPZ80 creates a Z80 wired to the shared Bus for its bank-switched
// window onto 68K address space.
func NewPZ80(bus *Bus) *PZ80 {
	p := &PZ80{bus: bus}
	p.membus = &Z80Bus{ram: &p.ramBack, bank: &p.bank, bus: bus}
	p.cpu = &z80.CPU{Memory: p.membus, IO: z80NullIO{}}
	return p
}

// PeekRAM/PokeRAM expose the Z80's 8KB work RAM through the $A00000-$A03FFF
// 68K window (bus.go's readA0/writeA0).
func (p *PZ80) PeekRAM(addr uint16) uint8      { return p.ramBack.Get(addr & 0x1FFF) }
func (p *PZ80) PokeRAM(addr uint16, v uint8)   { p.ramBack.Set(addr&0x1FFF, v) }

// WriteBankRegister shifts one bit into the 9-bit bank register (bit 0 of
// each write), matching the Genesis's one-bit-per-write $A06000 latch: the
// 68K must write 9 times to fully address a 32KB window anywhere in its
// 24-bit space.
func (p *PZ80) WriteBankRegister(v uint8) {
	bit := uint32(v&1) << (15 + p.bankBit)
	p.bank = (p.bank &^ (1 << (15 + p.bankBit))) | bit
	p.bankBit = (p.bankBit + 1) % 9
}

// RequestBus sets the 68K's BUSREQ line. While requested (and not held in
// reset) the Z80 is halted and the 68K may read/write its RAM directly.
func (p *PZ80) RequestBus(request bool) { p.busRequested = request }

// BusGranted reports whether the 68K currently owns the Z80's bus (BUSREQ
// asserted or the Z80 held in reset), per original_source/cpu.cpp's run()
// guard (!_reset_line && !_busreq_line gates Z80 execution).
func (p *PZ80) BusGranted() bool { return p.busRequested || p.resetLine }

// SetResetLine applies the Genesis's edge-triggered Z80 reset: a reset
// only actually takes effect once the line has been held for at least one
// 8-cycle pulse before release, per original_source/cpu.cpp's
// set_reset_line (short glitches on the line are ignored).
func (p *PZ80) SetResetLine(line bool) {
	if line == p.resetLine {
		return
	}
	p.resetLine = line
	if line {
		p.resetStart = p.clock
		return
	}
	if p.clock >= p.resetStart+8 {
		p.reset()
	}
}

func (p *PZ80) reset() {
	p.cpu.PC = 0
	p.cpu.SP = 0xFFFF
	p.cpu.IFF1 = false
	p.cpu.IM = 1
	p.cpu.HALT = false
	p.afterEI = false
	p.resetOnce = true
	p.clock += 20 // the Z80's own reset-settle time
}

// SetIRQ drives the Z80's maskable interrupt line (taken in IM1); the
// scheduler asserts it whenever it dispatches a VINT to the 68K and
// releases it at the start of the next frame, without consulting REG[11].
func (p *PZ80) SetIRQ(asserted bool) {
	if asserted {
		p.cpu.Interrupt = z80.IM1Interrupt()
		return
	}
	p.cpu.Interrupt = nil
}

// Step executes one Z80 instruction and returns the T-states consumed, or
// 0 if the bus is currently granted to the 68K, the Z80 is held in reset,
// or it has never yet received a valid reset pulse from the host boot
// sequence (resetOnce).
func (p *PZ80) Step() int {
	if !p.resetOnce || p.BusGranted() {
		return 0
	}

	if p.cpu.Interrupt != nil {
		if p.cpu.HALT {
			p.cpu.HALT = false
			p.cpu.PC++
		}
		if p.cpu.IFF1 {
			p.cpu.Step()
			p.clock += 13
			return 13
		}
	}

	if p.cpu.HALT {
		p.clock += 4
		return 4
	}

	pc := p.cpu.PC
	opcode := p.membus.Get(pc)

	var cycles int
	switch opcode {
	case 0xCB:
		cycles = cbCycles[p.membus.Get(pc+1)]
	case 0xDD:
		op2 := p.membus.Get(pc + 1)
		if op2 == 0xCB {
			cycles = indexedBitCycles(p.membus.Get(pc + 3))
		} else {
			cycles = ddCycles[op2]
		}
	case 0xED:
		cycles = edCycles[p.membus.Get(pc+1)]
	case 0xFD:
		op2 := p.membus.Get(pc + 1)
		if op2 == 0xCB {
			cycles = indexedBitCycles(p.membus.Get(pc + 3))
		} else {
			cycles = fdCycles[op2]
		}
	default:
		cycles = baseCycles[opcode]
	}

	p.cpu.Step()
	if opcode == 0xFB {
		p.afterEI = true
	}

	cycles = p.adjustConditional(opcode, pc, cycles)
	p.clock += uint64(cycles)
	return cycles
}

// indexedBitCycles distinguishes the two DD CB d op / FD CB d op timings:
// BIT b,(IX+d) takes 20 T-states, SET/RES b,(IX+d) takes 23 (the extra
// write-back cycle). The operator byte's top two bits are 01 for BIT and
// anything else for SET/RES.
func indexedBitCycles(op uint8) int {
	if op&0xC0 == 0x40 {
		return 20
	}
	return 23
}

// adjustConditional corrects the table-looked-up cycle count for
// instructions whose real cost depends on whether a branch/repeat was
// taken, adapted from emu/z80.go's CycleZ80.adjustConditional.
func (p *PZ80) adjustConditional(opcode uint8, pcBefore uint16, cycles int) int {
	pcAfter := p.cpu.PC

	switch opcode {
	case 0x20, 0x28, 0x30, 0x38: // JR cc,d
		if pcAfter == pcBefore+2 {
			return 7
		}
		return 12
	case 0xC0, 0xC8, 0xD0, 0xD8, 0xE0, 0xE8, 0xF0, 0xF8: // RET cc
		if pcAfter == pcBefore+1 {
			return 5
		}
		return 11
	case 0xC2, 0xCA, 0xD2, 0xDA, 0xE2, 0xEA, 0xF2, 0xFA: // JP cc,nn
		return 10
	case 0xC4, 0xCC, 0xD4, 0xDC, 0xE4, 0xEC, 0xF4, 0xFC: // CALL cc,nn
		if pcAfter == pcBefore+3 {
			return 10
		}
		return 17
	case 0x10: // DJNZ
		if pcAfter == pcBefore+2 {
			return 8
		}
		return 13
	case 0xED:
		op2 := p.membus.Get(pcBefore + 1)
		switch op2 {
		case 0xB0, 0xB1, 0xB2, 0xB3, 0xB8, 0xB9, 0xBA, 0xBB: // LDIR/CPIR/INIR/OTIR/LDDR/CPDR/INDR/OTDR
			if pcAfter == pcBefore {
				return 21
			}
			return 16
		}
	}

	return cycles
}
