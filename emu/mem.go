package emu

// WorkRAM is the 68K's 64KB work RAM, mirrored across bus pages $E0-$FF.
// Grounded on emu/mem.go's flat byte-array RAM model, sized for the
// Genesis's larger work RAM instead of the SMS's 8KB.
type WorkRAM [0x10000]byte

// buildROMMirror pads rom up to a whole number of 64KB pages so the page
// table can always hand out full page-sized slices. It only pads; the
// repeat of short ROMs across the cartridge's $00-$3F window happens in
// bus.go's installROMPages, at the next power-of-two page count, the way
// the 68K's address decode mirrors an undersized cartridge (no chip-select
// for the unused high address lines leaves the low bits of the ROM
// visible again).
func buildROMMirror(rom []byte) []byte {
	if len(rom) == 0 {
		return make([]byte, 0x10000)
	}
	if len(rom)%0x10000 == 0 {
		return rom
	}
	padded := make([]byte, ((len(rom)/0x10000)+1)*0x10000)
	copy(padded, rom)
	return padded
}
