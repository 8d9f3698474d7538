package emu

// cartQuirk records non-standard hardware a specific cartridge needs beyond
// the default 4MB linear ROM + no-SRAM mapping: a battery-backed SRAM
// region, an SSF2-style 5MB bankswitcher, or both.
type cartQuirk struct {
	SRAM        bool
	Bankswitch  bool
}

// cartQuirkDB is a small hardwired list of product codes needing special
// handling, the same "known hardwired list" idiom as romDatabase but for
// cartridge hardware variants rather than mapper/region. Product codes are
// the 11-byte field at ROM offset $180, space-padded.
var cartQuirkDB = map[string]cartQuirk{
	"GM MK-1079 ": {SRAM: true},               // Sonic the Hedgehog 3
	"GM MK-1304 ": {SRAM: true},               // Phantasy Star IV / Warriors of the Sun
	"GM MK-1354 ": {SRAM: true, Bankswitch: true}, // Story of Thor / Beyond Oasis
	"GM MK-12056": {Bankswitch: true},          // Super Street Fighter II
}
