package emu

import "testing"

func TestVDP_WriteControlDirectRegisterWrite(t *testing.T) {
	v := NewVDP()
	v.WriteControl(0x8100 | 0x40) // REG[1] = 0x40 (display enable)
	if got := v.GetRegister(1); got != 0x40 {
		t.Errorf("REG[1] = %#02x, want 0x40", got)
	}
}

func TestVDP_WriteControlTwoWordAddressLatch(t *testing.T) {
	v := NewVDP()
	// First word: code bits CD0-CD1 = 01 (VRAM write), low 14 bits of addr.
	v.WriteControl(0x4000 | 0x1234)
	// Second word: CD2-CD5 in bits 4-7, high 2 addr bits in bits 0-1.
	v.WriteControl(0x0000)

	v.WriteData(0xBEEF)
	if got := uint16(v.vram[0x1234])<<8 | uint16(v.vram[0x1235]); got != 0xBEEF {
		t.Errorf("VRAM write via command word = %#04x, want 0xBEEF", got)
	}
}

func TestVDP_ReadControlClearsPendingSecondWord(t *testing.T) {
	v := NewVDP()
	v.WriteControl(0x4000) // first word only, arms pendingSecondWord
	v.ReadControl()
	if v.pendingSecondWord {
		t.Error("ReadControl should clear pendingSecondWord")
	}
}

func TestVDP_ReadWriteDataRoundTrip(t *testing.T) {
	v := NewVDP()
	v.WriteControl(0x4000) // VRAM write, addr 0
	v.WriteControl(0x0000)
	v.WriteData(0xABCD)

	v.WriteControl(0x0000) // VRAM read, addr 0
	v.WriteControl(0x0000)
	if got := v.ReadData(); got != 0xABCD {
		t.Errorf("ReadData() = %#04x, want 0xABCD", got)
	}
}

func TestVDP_CRAMWriteMasksTo9Bits(t *testing.T) {
	v := NewVDP()
	v.WriteControl(0xC000) // CD1:CD0 = 11, addr 0
	v.WriteControl(0x0000) // CD2-CD5 = 0, resolving code_reg to 3 (CRAM write)
	v.WriteData(0xFFFF)
	if v.cram[0] != 0x0EEE {
		t.Errorf("cram[0] = %#04x, want 0x0EEE", v.cram[0])
	}
}

func TestVDP_ActiveHeightTracksM2(t *testing.T) {
	v := NewVDP()
	if got := v.ActiveHeight(); got != 224 {
		t.Errorf("default ActiveHeight = %d, want 224", got)
	}
	v.reg[1] = 0x08
	if got := v.ActiveHeight(); got != 240 {
		t.Errorf("V30 ActiveHeight = %d, want 240", got)
	}
}

func TestVDP_ModeH40RequiresBothRSBits(t *testing.T) {
	v := NewVDP()
	v.reg[12] = 0x81
	if !v.modeH40() {
		t.Error("expected H40 with RS0 and RS1 both set")
	}
	v.reg[12] = 0x01
	if v.modeH40() {
		t.Error("expected H32 with only RS0 set")
	}
}

func TestVDP_UpdateLineCounterFiresOnUnderflow(t *testing.T) {
	v := NewVDP()
	v.reg[10] = 0 // reload to 0, so every active line fires
	v.vCounter = 0
	v.UpdateLineCounter()
	if !v.lineIntPending {
		t.Error("expected lineIntPending after counter underflow")
	}
}

func TestVDP_UpdateLineCounterReloadsDuringVBlank(t *testing.T) {
	v := NewVDP()
	v.reg[10] = 5
	v.vCounter = 300 // past active height
	v.UpdateLineCounter()
	if v.lineCounter != 5 {
		t.Errorf("lineCounter during vblank = %d, want reload value 5", v.lineCounter)
	}
}

func TestVDP_ReadVCounterWrapsAroundPastActiveArea(t *testing.T) {
	v := NewVDP()
	t1 := GetTiming(Region{}, false)
	v.vCounter = t1.VCounterWrapAt + 1
	got := v.ReadVCounter()
	if got != uint8(t1.VCounterJumpTo) {
		t.Errorf("ReadVCounter() wrapped = %d, want %d", got, t1.VCounterJumpTo)
	}
}

func TestVDP_ReadVCounterUsesConfiguredRegionNotNTSC(t *testing.T) {
	v := NewVDP()
	v.SetRegion(RegionPAL)

	ntsc := GetTiming(Region{}, false)
	pal := GetTiming(RegionPAL, false)

	v.vCounter = ntsc.VCounterWrapAt + 1
	if got := v.ReadVCounter(); got == uint8(ntsc.VCounterJumpTo) {
		t.Errorf("ReadVCounter() on a PAL machine used the NTSC wrap table, got %d", got)
	}

	v.vCounter = pal.VCounterWrapAt + 1
	if got := v.ReadVCounter(); got != uint8(pal.VCounterJumpTo) {
		t.Errorf("ReadVCounter() on PAL = %d, want %d", got, pal.VCounterJumpTo)
	}
}

func TestVDP_ReadControlReflectsPALFlag(t *testing.T) {
	v := NewVDP()
	v.SetRegion(RegionPAL)
	if v.ReadControl()&0x1 == 0 {
		t.Error("expected status register PAL bit set for a PAL machine")
	}
}

func TestHCounterAt_H40JumpsForwardPastSplit(t *testing.T) {
	beforeSplit := hcounterAt(2735, true)
	afterSplit := hcounterAt(2736, true)
	if beforeSplit != 92 {
		t.Errorf("hcounterAt(2735, h40) = %#02x, want 0x5C", beforeSplit)
	}
	if afterSplit != 201 {
		t.Errorf("hcounterAt(2736, h40) = %#02x, want 0xC9", afterSplit)
	}
}

func TestHCounterAt_H32JumpsForwardPastSplit(t *testing.T) {
	beforeSplit := hcounterAt(2739, false)
	afterSplit := hcounterAt(2740, false)
	if beforeSplit != 28 {
		t.Errorf("hcounterAt(2739, h32) = %#02x, want 0x1C", beforeSplit)
	}
	if afterSplit != 210 {
		t.Errorf("hcounterAt(2740, h32) = %#02x, want 0xD2", afterSplit)
	}
}

func TestVDP_ReadHCounterUsesClockPosition(t *testing.T) {
	v := NewVDP()
	var cycles uint64
	v.SetClock(func() uint64 { return cycles })

	cycles = 500 // dots = cycles * M68KDivisor, well within the first scanline
	want := hcounterAt(cycles*M68KDivisor%CyclesPerLine, v.modeH40())
	if got := v.ReadHCounter(); got != want {
		t.Errorf("ReadHCounter() = %#02x, want %#02x", got, want)
	}
}
