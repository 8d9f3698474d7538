package emu

// Region describes the console variant: the broadcast standard (NTSC/PAL)
// and the domestic/oversea axis read from the cartridge header. These are
// independent — a domestic NTSC unit and an oversea NTSC unit run the same
// timing but report a different bit from the version register (see io.go).
type Region struct {
	PAL     bool
	Oversea bool
}

func (r Region) String() string {
	switch {
	case r.PAL && r.Oversea:
		return "PAL/Oversea"
	case r.PAL:
		return "PAL/Domestic"
	case r.Oversea:
		return "NTSC/Oversea"
	default:
		return "NTSC/Domestic"
	}
}

// RegionNTSC and RegionPAL are the two presets selectable from the CLI's
// -m/--mode flag. Domestic/oversea defaults to Oversea and is refined by
// DetectRegionFromHeader once a cartridge is loaded.
var (
	RegionNTSC = Region{PAL: false, Oversea: true}
	RegionPAL  = Region{PAL: true, Oversea: true}
)

// RegionTiming holds the scanline geometry that depends on region and
// V-mode (REG[1] bit 3: 0 = V28 = 224 active lines, 1 = V30 = 240 lines).
type RegionTiming struct {
	ScanlinesPerFrame int
	VBlankStart       int
	VCounterWrapAt    int
	VCounterJumpTo    int
}

// GetTiming returns the scanline timing for a region and V-mode, per the
// VDP's non-linear vcounter wrap table.
func GetTiming(r Region, v30 bool) RegionTiming {
	if !r.PAL {
		t := RegionTiming{ScanlinesPerFrame: 262, VCounterWrapAt: 0xEB, VCounterJumpTo: 0x1E5}
		if v30 {
			t.VBlankStart = 0xF0
		} else {
			t.VBlankStart = 0xE0
		}
		return t
	}
	if v30 {
		return RegionTiming{ScanlinesPerFrame: 313, VBlankStart: 0xF0, VCounterWrapAt: 0x10B, VCounterJumpTo: 0x1D2}
	}
	return RegionTiming{ScanlinesPerFrame: 313, VBlankStart: 0xE0, VCounterWrapAt: 0x103, VCounterJumpTo: 0x1CA}
}

// Master clock constants, in VDP dots — the highest-frequency reference
// the scheduler ticks against.
const (
	CyclesPerLine  = 3420
	M68KDivisor    = 7  // dots per 68K cycle
	Z80Divisor     = 14 // dots per Z80 cycle
	NTSCMasterFreq = 53693175
)

// DetectRegionFromHeader inspects the 16-byte region string at ROM offset
// 0x1F0: J/U/1 select domestic NTSC, E/8/F select oversea PAL. Falls back
// to the supplied default when neither marker is present.
func DetectRegionFromHeader(regionBytes []byte, fallback Region) Region {
	hasAny := func(chars string) bool {
		for _, b := range regionBytes {
			for _, c := range chars {
				if b == byte(c) {
					return true
				}
			}
		}
		return false
	}
	if hasAny("JU1") {
		return Region{PAL: false, Oversea: false}
	}
	if hasAny("E8F") {
		return Region{PAL: true, Oversea: true}
	}
	return fallback
}
