package emu

import "testing"

func TestPSGStub_GenerateSamplesFillsBuffer(t *testing.T) {
	psg := NewPSGStub(3579545, 48000, 800)

	psg.Write(0x9F) // channel 0 volume attenuation, silences the tone
	psg.GenerateSamples(3579545 / 60)

	_, count := psg.GetBuffer()
	if count == 0 {
		t.Error("expected GenerateSamples to produce at least one buffered sample")
	}
}

func TestPSGStub_GetBufferDrainsOnce(t *testing.T) {
	psg := NewPSGStub(3579545, 48000, 800)
	psg.GenerateSamples(3579545 / 60)

	_, first := psg.GetBuffer()
	_, second := psg.GetBuffer()
	if first == 0 {
		t.Fatal("expected samples after GenerateSamples")
	}
	if second != 0 {
		t.Errorf("expected GetBuffer to drain the buffer, got %d samples left", second)
	}
}
