package emu

import (
	"encoding/binary"
	"errors"

	"github.com/user-none/go-chip-m68k"
)

var errShortState = errors.New("emu: save state buffer too short")

// Save states use the Genecyst GST layout: a handful of fixed byte offsets
// first popularized by the Genecyst emulator and still read by most
// Genesis frontends today, reproduced here with Go's encoding/binary
// instead of raw fwrite/fread, in the same offset-incrementing style
// emulator.go's register serialization uses.
const (
	gstMagic           = "GST\x00\x00\x00\xE0\x40"
	gstM68KRegs        = 0x80 // D0-D7, A0-A7: 16 longs
	gstM68KPC          = 0xC8
	gstM68KSR          = 0xD0
	gstM68KUSP         = 0xD2
	gstM68KSSP         = 0xD6
	gstVDPRegs         = 0xFA // 24 bytes
	gstVDPCRAM         = 0xFA + 24  // 128 bytes (64 words)
	gstVDPVSRAM        = 0xFA + 152 // 80 bytes (40 words)
	gstYM2612Regs      = 0x1E4 // 512 bytes
	gstZ80Regs         = 0x404 // AF,BC,DE,HL,IX,IY,PC,SP,AF',BC',DE',HL' as longs (48 bytes)
	gstZ80I            = 0x434
	gstZ80IFF          = 0x436
	gstZ80ResetLine    = 0x438
	gstZ80BusreqLine   = 0x439
	gstZ80Bank         = 0x43C
	gstZ80RAM          = 0x474 // 0x2000 bytes
	gstWorkRAM         = 0x474 + 0x2000 + 4
	gstVRAM            = 0x474 + 0x2000 + 4 + 0x10000
	gstTotalSize       = gstVRAM + 0x10000
)

// SaveState serializes the machine's CPU/VDP/Z80/memory state into a
// Genecyst-compatible buffer, so it can be exchanged with other Genesis
// emulators or tooling built around the GST format.
func (m *Machine) SaveState() []byte {
	data := make([]byte, gstTotalSize)
	copy(data[0:9], gstMagic)

	regs := m.cpu.cpu.Registers()
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint32(data[gstM68KRegs+i*4:], regs.D[i])
	}
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint32(data[gstM68KRegs+32+i*4:], regs.A[i])
	}
	binary.LittleEndian.PutUint32(data[gstM68KPC:], regs.PC)
	binary.LittleEndian.PutUint16(data[gstM68KSR:], regs.SR)
	binary.LittleEndian.PutUint32(data[gstM68KUSP:], regs.USP)
	binary.LittleEndian.PutUint32(data[gstM68KSSP:], regs.SSP)

	copy(data[gstVDPRegs:], m.vdp.GetRegisters())
	cram := m.vdp.GetCRAM()
	for i, c := range cram {
		binary.LittleEndian.PutUint16(data[gstVDPCRAM+i*2:], c)
	}
	vsram := m.vdp.GetVSRAM()
	for i := 0; i < 40 && i < len(vsram); i++ {
		binary.LittleEndian.PutUint16(data[gstVDPVSRAM+i*2:], vsram[i])
	}

	z := m.z80.cpu
	binary.LittleEndian.PutUint32(data[gstZ80Regs:], uint32(z.AF.U16()))
	binary.LittleEndian.PutUint32(data[gstZ80Regs+4:], uint32(z.BC.U16()))
	binary.LittleEndian.PutUint32(data[gstZ80Regs+8:], uint32(z.DE.U16()))
	binary.LittleEndian.PutUint32(data[gstZ80Regs+12:], uint32(z.HL.U16()))
	binary.LittleEndian.PutUint32(data[gstZ80Regs+24:], uint32(z.PC))
	binary.LittleEndian.PutUint32(data[gstZ80Regs+28:], uint32(z.SP))
	if z.IFF1 {
		data[gstZ80IFF] = 1
	}
	if m.z80.resetLine {
		data[gstZ80ResetLine] = 1
	}
	if m.z80.busRequested {
		data[gstZ80BusreqLine] = 1
	}
	binary.LittleEndian.PutUint32(data[gstZ80Bank:], m.z80.bank)

	copy(data[gstZ80RAM:], m.z80.ramBack[:])
	copy(data[gstWorkRAM:], m.bus.GetWorkRAM()[:])
	copy(data[gstVRAM:], m.vdp.GetVRAM())

	return data
}

// LoadState restores machine state from a Genecyst-format buffer produced
// by SaveState (or a compatible external tool). Region/ROM identity is not
// re-validated; the GST format carries no checksum of its own, matching
// original_source/state.cpp's loadstate which trusts the file wholesale.
func (m *Machine) LoadState(data []byte) error {
	if len(data) < gstTotalSize {
		return errShortState
	}

	var regs m68k.Registers
	for i := 0; i < 8; i++ {
		regs.D[i] = binary.LittleEndian.Uint32(data[gstM68KRegs+i*4:])
	}
	for i := 0; i < 8; i++ {
		regs.A[i] = binary.LittleEndian.Uint32(data[gstM68KRegs+32+i*4:])
	}
	regs.PC = binary.LittleEndian.Uint32(data[gstM68KPC:])
	regs.SR = binary.LittleEndian.Uint16(data[gstM68KSR:])
	regs.USP = binary.LittleEndian.Uint32(data[gstM68KUSP:])
	regs.SSP = binary.LittleEndian.Uint32(data[gstM68KSSP:])
	m.cpu.cpu.SetState(regs)

	copy(m.vdp.GetRegisters(), data[gstVDPRegs:gstVDPRegs+24])
	cram := m.vdp.GetCRAM()
	for i := range cram {
		cram[i] = binary.LittleEndian.Uint16(data[gstVDPCRAM+i*2:])
	}
	vsram := m.vdp.GetVSRAM()
	for i := 0; i < 40 && i < len(vsram); i++ {
		vsram[i] = binary.LittleEndian.Uint16(data[gstVDPVSRAM+i*2:])
	}
	m.vdp.LatchCRAM()
	m.vdp.MarkSATDirty()

	z := m.z80.cpu
	z.AF.SetU16(uint16(binary.LittleEndian.Uint32(data[gstZ80Regs:])))
	z.BC.SetU16(uint16(binary.LittleEndian.Uint32(data[gstZ80Regs+4:])))
	z.DE.SetU16(uint16(binary.LittleEndian.Uint32(data[gstZ80Regs+8:])))
	z.HL.SetU16(uint16(binary.LittleEndian.Uint32(data[gstZ80Regs+12:])))
	z.PC = uint16(binary.LittleEndian.Uint32(data[gstZ80Regs+24:]))
	z.SP = uint16(binary.LittleEndian.Uint32(data[gstZ80Regs+28:]))
	z.IFF1 = data[gstZ80IFF] != 0
	m.z80.resetLine = data[gstZ80ResetLine] != 0
	m.z80.busRequested = data[gstZ80BusreqLine] != 0
	m.z80.bank = binary.LittleEndian.Uint32(data[gstZ80Bank:])

	copy(m.z80.ramBack[:], data[gstZ80RAM:gstZ80RAM+0x2000])
	copy(m.bus.GetWorkRAM()[:], data[gstWorkRAM:gstWorkRAM+0x10000])
	copy(m.vdp.GetVRAM(), data[gstVRAM:gstVRAM+0x10000])

	return nil
}
