package emu

import "testing"

func TestNewMachine_WiresCallbacks(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	if m.bus == nil || m.cpu == nil || m.z80 == nil || m.vdp == nil {
		t.Fatal("NewMachine left a core component nil")
	}
}

func TestMachine_SetRegionUpdatesScanlineCount(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	ntscLines := m.timing.ScanlinesPerFrame

	m.SetRegion(RegionPAL)
	if m.timing.ScanlinesPerFrame == ntscLines {
		t.Error("expected PAL scanline count to differ from NTSC")
	}
	if m.vdp.totalScanlines != m.timing.ScanlinesPerFrame {
		t.Error("VDP totalScanlines should track the machine's region timing")
	}
}

func TestMachine_SetInputForwardsToIOPorts(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	m.SetInput(0, 0x55)
	if got := m.io.Read(0x0003); got != 0x55 {
		t.Errorf("port 0 data after SetInput = %#02x, want 0x55", got)
	}
}

func TestMachine_RunFrameAdvancesFrameCount(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	m.RunFrame()
	if m.frameCount != 1 {
		t.Errorf("frameCount after one RunFrame = %d, want 1", m.frameCount)
	}
}

func TestMachine_RunFrameProducesAudio(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	m.RunFrame()
	samples, count := m.AudioBuffer()
	if count <= 0 {
		t.Error("expected RunFrame to generate some PSG samples over a frame")
	}
	if len(samples) < count {
		t.Errorf("AudioBuffer() slice shorter than reported count: len=%d count=%d", len(samples), count)
	}
}

func TestMachine_DispatchInterruptsAcknowledgesVINT(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	m.vdp.reg[1] = 0x20 // VINT enable
	m.vdp.SetVBlank()

	m.dispatchInterrupts()

	if m.vdp.vintPending {
		t.Error("expected vintPending cleared after dispatchInterrupts")
	}
}

func TestMachine_DispatchInterruptsSetsZ80IRQOnVINT(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	m.vdp.reg[1] = 0x20
	m.vdp.SetVBlank()

	m.dispatchInterrupts()

	if m.z80.cpu.Interrupt == nil {
		t.Error("expected VINT to also raise the Z80's maskable interrupt line")
	}
}

func TestMachine_RunLineAdvancesBothCoresToLineBudget(t *testing.T) {
	m := NewMachine(make([]byte, 0x10000), RegionNTSC)
	startCycles := m.cpu.Cycles()
	m.runLine()
	if m.cpu.Cycles() <= startCycles {
		t.Error("expected runLine to advance the 68K's cycle counter")
	}
}
