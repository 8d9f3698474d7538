package emu

import (
	"hash/crc32"
	"log"
)

// Cartridge models the Cartridge Adapter: header parsing, the battery-
// backed SRAM enable latch at $A130F1, and the SSF2-style 5MB
// bankswitcher exposed through $A130F3-$A130FF. Grounded on
// original_source/cartidge.cpp.
type Cartridge struct {
	Name       string
	ProductID  string
	RegionCode []byte

	sramEnabled bool
	hasSRAM     bool
	sram        [0x8000]byte

	bankswitch bool
}

// NewCartridge parses the 512-byte header (name at $120 len 0x30, product
// code at $180 len 0xD, region at $1F0 len 0x10) and consults cartQuirkDB
// for SRAM/bankswitch quirks.
func NewCartridge(rom []byte) *Cartridge {
	c := &Cartridge{}
	if len(rom) >= 0x200 {
		c.Name = trimHeaderField(rom[0x120:0x150])
		c.ProductID = trimHeaderField(rom[0x180:0x18D])
		c.RegionCode = append([]byte(nil), rom[0x1F0:0x200]...)
	}

	if quirk, ok := cartQuirkDB[string(rom8(rom, 0x180, 0xB))]; ok {
		c.hasSRAM = quirk.SRAM
		c.bankswitch = quirk.Bankswitch
	}
	// Auto-detect SRAM via the 'RA' marker at $1B0 even for carts not in
	// the hardwired list, per original_source/cartidge.cpp.
	if len(rom) > 0x1B1 && rom[0x1B0] == 'R' && rom[0x1B1] == 'A' {
		c.hasSRAM = true
	}

	log.Printf("[cart] %q (%s) sram=%v bankswitch=%v", c.Name, c.ProductID, c.hasSRAM, c.bankswitch)
	return c
}

func rom8(rom []byte, off, n int) []byte {
	if off+n > len(rom) {
		return nil
	}
	return rom[off : off+n]
}

func trimHeaderField(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}

// ReadControl services reads from $A13000-$A130FF (the bankswitch/SRAM
// control range); the real hardware has no readable state here beyond
// open bus, so this always returns 0xFF.
func (c *Cartridge) ReadControl(off uint32) uint8 {
	return 0xFF
}

// WriteControl dispatches a write in the $A13000-$A130FF range: the SRAM
// enable latch at $A130F1, or one of the seven SSF2 bank-select registers at
// $A130F3/F5/F7/F9/FB/FD/FF (each installs a 512KB slice across 8 of the
// 68K's $08-$3F ROM pages).
func (c *Cartridge) WriteControl(off uint32, v uint8, bus *Bus) {
	switch off {
	case 0x30F1:
		c.sramEnabled = v&1 != 0
	case 0x30F3, 0x30F5, 0x30F7, 0x30F9, 0x30FB, 0x30FD, 0x30FF:
		if !c.bankswitch {
			return
		}
		slot := (off - 0x30F3) / 2
		base := 0x08 + int(slot)*8
		mirrorOffset := uint32(v) * 512 * 1024
		for i := 0; i < 8; i++ {
			bus.SetROMPage(base+i, mirrorOffset+uint32(i)*0x10000)
		}
	default:
		log.Printf("[cart] unknown control write at $A1%04X = %#02x", off, v)
	}
}

// ReadSRAM / WriteSRAM access the SRAM array when SRAM is present and
// enabled; otherwise reads return 0xFF and writes are dropped. bus.go routes
// no 68K address to them: page $20 stays part of the cartridge ROM window
// whether or not SRAM is enabled.
func (c *Cartridge) ReadSRAM(off uint32) uint8 {
	if !c.hasSRAM || !c.sramEnabled {
		return 0xFF
	}
	return c.sram[off&0x7FFF]
}

func (c *Cartridge) WriteSRAM(off uint32, v uint8) {
	if !c.hasSRAM || !c.sramEnabled {
		return
	}
	c.sram[off&0x7FFF] = v
}

// HasSRAM reports whether this cartridge carries battery-backed RAM.
func (c *Cartridge) HasSRAM() bool { return c.hasSRAM }

// CRC32 returns the IEEE CRC-32 checksum of the raw ROM image.
func CRC32(rom []byte) uint32 {
	return crc32.ChecksumIEEE(rom)
}
