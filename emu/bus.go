package emu

import "log"

// pageKind tags what a 64KB page of the 68K's 24-bit address space
// resolves to. Generalizes Memory.Get/Set's range-switch dispatch into an
// explicit per-page table so device callbacks (VDP, I/O, Z80 window) sit
// beside plain RAM/ROM windows instead of special-casing every access.
type pageKind uint8

const (
	pageAbsent pageKind = iota
	pageRAM
	pageDevice
)

// devicePorts is the four-entry-point shape a memory-mapped device exposes.
// Any entry left nil is logged as an unknown access and reads as 0xFF /
// is discarded on write — matching real open-bus decode behavior closely
// enough for a non-floating-point core.
type devicePorts struct {
	read8   func(off uint32) uint8
	read16  func(off uint32) uint16
	write8  func(off uint32, v uint8)
	write16 func(off uint32, v uint16)
}

type page struct {
	kind pageKind
	ram  []byte
	dev  *devicePorts
}

// Bus is the 68000's 24-bit address space: a 256-entry table of 64KB
// pages, each tagged RAM, device or absent. The 68K's work RAM is aliased
// into every page of $E0-$FF so writes through any mirror are visible
// through all of them; Z80 RAM is reached through the $A0 device handlers.
type Bus struct {
	pages [256]page

	work      WorkRAM
	romMirror []byte

	cart *Cartridge
	vdp  *VDP
	io   *IOPorts
	z80  *PZ80
	ym   FMCore
	psg  *PSGStub

	burn func(cycles uint64)
}

// NewBus wires a Bus to its memory-mapped collaborators and builds the
// default page table (ROM at $00-$3F, Z80 window + YM2612 + bank register
// at $A0, I/O + cartridge control at $A1, VDP at $C0-$DF, work RAM
// mirrored across $E0-$FF).
func NewBus(rom []byte, cart *Cartridge, vdp *VDP, io *IOPorts, z80 *PZ80, ym FMCore, psg *PSGStub) *Bus {
	b := &Bus{
		romMirror: buildROMMirror(rom),
		cart:      cart,
		vdp:       vdp,
		io:        io,
		z80:       z80,
		ym:        ym,
		psg:       psg,
	}
	b.installROMPages()
	b.installDevicePages()
	b.installWorkRAM()
	return b
}

// SetBurner wires the callback used to charge the 68K for cycles it loses
// while the VDP or DMA hold the bus — P68K.AddCycles, installed by the
// scheduler after both halves exist (breaking the Bus<->CPU construction
// cycle DESIGN NOTES discusses).
func (b *Bus) SetBurner(burn func(cycles uint64)) {
	b.burn = burn
}

func (b *Bus) installROMPages() {
	pageCount := len(b.romMirror) / 0x10000
	if pageCount == 0 {
		pageCount = 1
	}
	mirrorPages := 1
	for mirrorPages < pageCount {
		mirrorPages <<= 1
	}
	for p := 0; p < 0x40; p++ {
		src := p % mirrorPages
		lo := src * 0x10000
		hi := lo + 0x10000
		if hi > len(b.romMirror) {
			b.pages[p] = page{kind: pageAbsent}
			continue
		}
		b.pages[p] = page{kind: pageRAM, ram: b.romMirror[lo:hi:hi]}
	}
}

// SetROMPage installs a cartridge-bankswitcher override: 68K page p reads
// from the romMirror window starting at byte offset mirrorOffset instead
// of its default 1:1 slot. Used by the SSF2-style 5MB bankswitcher.
func (b *Bus) SetROMPage(p int, mirrorOffset uint32) {
	lo := int(mirrorOffset) % len(b.romMirror)
	hi := lo + 0x10000
	if hi > len(b.romMirror) {
		hi = len(b.romMirror)
	}
	b.pages[p] = page{kind: pageRAM, ram: b.romMirror[lo:hi:hi]}
}

func (b *Bus) installWorkRAM() {
	ram := b.work[:]
	for p := 0xE0; p <= 0xFF; p++ {
		b.pages[p] = page{kind: pageRAM, ram: ram}
	}
}

func (b *Bus) installDevicePages() {
	b.pages[0xA0] = page{kind: pageDevice, dev: &devicePorts{
		read8:   b.readA0,
		read16:  func(off uint32) uint16 { return uint16(b.readA0(off))<<8 | uint16(b.readA0(off+1)) },
		write8:  b.writeA0,
		write16: func(off uint32, v uint16) { b.writeA0(off, uint8(v>>8)); b.writeA0(off+1, uint8(v)) },
	}}
	b.pages[0xA1] = page{kind: pageDevice, dev: &devicePorts{
		read8:   b.readA1,
		read16:  func(off uint32) uint16 { return uint16(b.readA1(off))<<8 | uint16(b.readA1(off+1)) },
		write8:  b.writeA1,
		write16: func(off uint32, v uint16) { b.writeA1(off, uint8(v>>8)); b.writeA1(off+1, uint8(v)) },
	}}
	for p := 0xC0; p <= 0xDF; p++ {
		b.pages[p] = page{kind: pageDevice, dev: &devicePorts{
			read8:   b.readVDP8,
			read16:  b.readVDP16,
			write8:  b.writeVDP8,
			write16: b.writeVDP16,
		}}
	}
}

// --- $A00000-$A0FFFF: Z80 RAM window / YM2612 / Z80 bank register ---

// z80ContentionCycles approximates the 68K wait states incurred touching the
// Z80 RAM window while the Z80 still owns its own bus. Not cycle-exact (real
// hardware stalls until the Z80's next free cycle), just enough to make
// unarbitrated access cost something instead of being free.
const z80ContentionCycles = 4

func (b *Bus) readA0(off uint32) uint8 {
	a := off & 0xFFFF
	switch {
	case a < 0x4000:
		if !b.z80.BusGranted() && b.burn != nil {
			b.burn(z80ContentionCycles)
		}
		return b.z80.PeekRAM(uint16(a & 0x1FFF))
	case a < 0x6000:
		return b.ym.Status()
	default:
		return 0xFF
	}
}

func (b *Bus) writeA0(off uint32, v uint8) {
	a := off & 0xFFFF
	switch {
	case a < 0x4000:
		if b.z80.BusGranted() {
			b.z80.PokeRAM(uint16(a&0x1FFF), v)
		} else if b.burn != nil {
			b.burn(z80ContentionCycles)
		}
	case a < 0x6000:
		b.ym.Write(uint8(a&3), v)
	case a == 0x6000 || a == 0x6001:
		b.z80.WriteBankRegister(v)
	default:
		log.Printf("[bus] unknown write to $A0%04X = %#02x", a, v)
	}
}

// --- $A10000-$A1FFFF: I/O ports, version register, busreq/reset latches, cartridge control ---

func (b *Bus) readA1(off uint32) uint8 {
	a := off & 0xFFFF
	switch {
	case a == 0x0001 || a == 0x0000:
		return b.io.ReadVersion()
	case a >= 0x0003 && a <= 0x000F:
		return b.io.Read(a)
	case a == 0x1100 || a == 0x1101:
		if b.z80.BusGranted() {
			return 0x00
		}
		return 0x01
	case a == 0x1200 || a == 0x1201:
		return 0xFF
	case a >= 0x3000:
		return b.cart.ReadControl(a)
	default:
		return 0xFF
	}
}

func (b *Bus) writeA1(off uint32, v uint8) {
	a := off & 0xFFFF
	switch {
	case a >= 0x0003 && a <= 0x000F:
		b.io.Write(a, v)
	case a == 0x1100 || a == 0x1101:
		b.z80.RequestBus(v&1 != 0)
	case a == 0x1200 || a == 0x1201:
		b.z80.SetResetLine(v&1 != 0)
	case a >= 0x3000:
		b.cart.WriteControl(a, v, b)
	default:
		log.Printf("[bus] unknown write to $A1%04X = %#02x", a, v)
	}
}

// --- $C00000-$DFFFFF: VDP data/control/HV-counter ports (mirrored every $20) ---

func (b *Bus) readVDP8(off uint32) uint8 {
	v := b.readVDP16(off &^ 1)
	if off&1 == 0 {
		return uint8(v >> 8)
	}
	return uint8(v)
}

func (b *Bus) readVDP16(off uint32) uint16 {
	switch off & 0x1F {
	case 0x00, 0x02:
		return b.vdp.ReadData()
	case 0x04, 0x06:
		return b.vdp.ReadControl()
	case 0x08, 0x0A, 0x0C, 0x0E:
		return uint16(b.vdp.ReadHCounter())<<8 | uint16(b.vdp.ReadVCounter())
	default:
		return 0xFFFF
	}
}

func (b *Bus) writeVDP8(off uint32, v uint8) {
	b.writeVDP16(off&^1, uint16(v)<<8|uint16(v))
}

func (b *Bus) writeVDP16(off uint32, v uint16) {
	switch off & 0x1F {
	case 0x00, 0x02:
		b.vdp.WriteData(v) // charges the FIFO's own access-slot backpressure
	case 0x04, 0x06:
		b.vdp.WriteControl(v)
	case 0x10, 0x12, 0x14, 0x16:
		b.psg.Write(uint8(v))
	default:
		log.Printf("[bus] unknown VDP-range write at offset %#x = %#04x", off, v)
	}
}

// --- generic page-table access, used by the 68K CPU wrapper ---

func (b *Bus) pageFor(addr uint32) *page {
	return &b.pages[(addr>>16)&0xFF]
}

func (b *Bus) Read8(addr uint32) uint8 {
	p := b.pageFor(addr)
	switch p.kind {
	case pageRAM:
		return p.ram[addr&0xFFFF]
	case pageDevice:
		if p.dev.read8 != nil {
			return p.dev.read8(addr)
		}
		log.Printf("[bus] read8 from device page with no read8 handler at %#06x", addr)
		return 0xFF
	default:
		return 0xFF
	}
}

func (b *Bus) Write8(addr uint32, v uint8) {
	p := b.pageFor(addr)
	switch p.kind {
	case pageRAM:
		p.ram[addr&0xFFFF] = v
	case pageDevice:
		if p.dev.write8 != nil {
			p.dev.write8(addr, v)
		} else {
			log.Printf("[bus] write8 to device page with no write8 handler at %#06x", addr)
		}
	default:
		log.Printf("[bus] write8 to absent page at %#06x = %#02x", addr, v)
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	addr &^= 1
	p := b.pageFor(addr)
	switch p.kind {
	case pageRAM:
		o := addr & 0xFFFF
		if o == 0xFFFF {
			return uint16(p.ram[o])<<8 | uint16(b.pages[((addr>>16)+1)&0xFF].ram[0])
		}
		return uint16(p.ram[o])<<8 | uint16(p.ram[o+1])
	case pageDevice:
		if p.dev.read16 != nil {
			return p.dev.read16(addr)
		}
		log.Printf("[bus] read16 from device page with no read16 handler at %#06x", addr)
		return 0xFFFF
	default:
		return 0xFFFF
	}
}

func (b *Bus) Write16(addr uint32, v uint16) {
	addr &^= 1
	p := b.pageFor(addr)
	switch p.kind {
	case pageRAM:
		o := addr & 0xFFFF
		p.ram[o] = uint8(v >> 8)
		if o == 0xFFFF {
			b.pages[((addr>>16)+1)&0xFF].ram[0] = uint8(v)
			return
		}
		p.ram[o+1] = uint8(v)
	case pageDevice:
		if p.dev.write16 != nil {
			p.dev.write16(addr, v)
		} else {
			log.Printf("[bus] write16 to device page with no write16 handler at %#06x", addr)
		}
	default:
		log.Printf("[bus] write16 to absent page at %#06x = %#04x", addr, v)
	}
}

func (b *Bus) Read32(addr uint32) uint32 {
	return uint32(b.Read16(addr))<<16 | uint32(b.Read16(addr+2))
}

func (b *Bus) Write32(addr uint32, v uint32) {
	b.Write16(addr, uint16(v>>16))
	b.Write16(addr+2, uint16(v))
}

// GetWorkRAM exposes the 68K's 64KB work RAM, used by the save-state
// serializer.
func (b *Bus) GetWorkRAM() *WorkRAM {
	return &b.work
}
