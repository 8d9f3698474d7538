package emu

import "testing"

func newTestBus(rom []byte) *Bus {
	cart := NewCartridge(rom)
	vdp := NewVDP()
	io := NewIOPorts(RegionNTSC)
	ym := NewSilentFMCore()
	psg := NewPSGStub(3579545, 48000, 800)
	bus := NewBus(rom, cart, vdp, io, nil, ym, psg)
	z80 := NewPZ80(bus)
	bus.z80 = z80
	return bus
}

func TestBus_ReadROM(t *testing.T) {
	rom := make([]byte, 0x10000)
	rom[0] = 0x12
	rom[1] = 0x34
	bus := newTestBus(rom)

	if got := bus.Read16(0); got != 0x1234 {
		t.Errorf("Read16(0) = %#04x, want 0x1234", got)
	}
}

func TestBus_ROMMirrorsShortCartridge(t *testing.T) {
	rom := make([]byte, 0x8000) // half a page
	rom[0] = 0xAB
	bus := newTestBus(rom)

	// page 1 (addr 0x10000) should mirror back to the start of the padded image.
	if got := bus.Read8(0x10000); got != 0xAB {
		t.Errorf("mirrored page read = %#02x, want 0xAB", got)
	}
}

func TestBus_WorkRAMReadWrite(t *testing.T) {
	bus := newTestBus(make([]byte, 0x10000))

	bus.Write16(0xFF0000, 0xCAFE)
	if got := bus.Read16(0xFF0000); got != 0xCAFE {
		t.Errorf("work RAM Read16 = %#04x, want 0xCAFE", got)
	}
}

func TestBus_WorkRAMMirroredAcrossPages(t *testing.T) {
	bus := newTestBus(make([]byte, 0x10000))

	bus.Write8(0xE00000, 0x77)
	if got := bus.Read8(0xFF0000); got != 0x77 {
		t.Errorf("work RAM not aliased across mirrors: got %#02x, want 0x77", got)
	}
}

func TestBus_IOPortsRoundTrip(t *testing.T) {
	bus := newTestBus(make([]byte, 0x10000))

	bus.Write8(0xA10009, 0x7F) // port 1 all-output
	bus.Write8(0xA10003, 0x55)
	if got := bus.Read8(0xA10003); got != 0x55 {
		t.Errorf("I/O port round trip = %#02x, want 0x55", got)
	}
}

func TestBus_VersionRegister(t *testing.T) {
	bus := newTestBus(make([]byte, 0x10000))
	if got := bus.Read8(0xA10001); got&0x20 == 0 {
		t.Errorf("version register = %#02x, expected bit5 set", got)
	}
}

func TestBus_AbsentPageReadsOpenBus(t *testing.T) {
	bus := newTestBus(make([]byte, 0x10000))
	if got := bus.Read8(0x500000); got != 0xFF {
		t.Errorf("absent page read = %#02x, want 0xFF", got)
	}
}

func TestBus_SetROMPageInstallsBankswitch(t *testing.T) {
	rom := make([]byte, 0x100000) // 1MB, enough for two 512KB slices
	rom[0x80000] = 0x99
	bus := newTestBus(rom)

	bus.SetROMPage(0x08, 0x80000)
	if got := bus.Read8(0x080000); got != 0x99 {
		t.Errorf("banked page read = %#02x, want 0x99", got)
	}
}

func TestBus_Read32ComposesTwoWords(t *testing.T) {
	rom := make([]byte, 0x10000)
	rom[0], rom[1], rom[2], rom[3] = 0x11, 0x22, 0x33, 0x44
	bus := newTestBus(rom)

	if got := bus.Read32(0); got != 0x11223344 {
		t.Errorf("Read32(0) = %#08x, want 0x11223344", got)
	}
}
