package emu

import "github.com/user-none/go-chip-sn76489"

// PSGStub wires the legacy SN76489 PSG (accessible to 68K software through
// the VDP port range at $C00010-$C00017, per bus.go's writeVDP16). The YM2612 is the
// Genesis's primary sound chip; the PSG exists mostly for backward-compatible
// Master System software run through the console's BIOS, but its output is
// still generated and buffered per scanline the same way emu/emulator.go's
// runScanlines drives it, so host audio code has real samples to pull from.
// Grounded on emu/io.go's SMSIO, which wires the same library's Write for its
// SMS PSG port, and emu/emulator_test.go's GenerateSamples/GetBuffer usage.
type PSGStub struct {
	chip *sn76489.SN76489
}

// NewPSGStub creates a PSG clocked at the Genesis's Z80 rate (the PSG
// shares the Z80's clock divider on real hardware).
func NewPSGStub(clockHz, sampleRate, bufferSize int) *PSGStub {
	return &PSGStub{chip: sn76489.New(clockHz, sampleRate, bufferSize, sn76489.Sega)}
}

// Write latches a PSG command byte.
func (p *PSGStub) Write(value uint8) {
	p.chip.Write(value)
}

// GenerateSamples advances the PSG's internal oscillators by cycles Z80
// T-states, producing however many output samples that time span covers at
// the configured sample rate.
func (p *PSGStub) GenerateSamples(cycles int) {
	p.chip.GenerateSamples(cycles)
}

// GetBuffer drains the PSG's sample buffer, returning the buffer and how
// many samples it holds (the library's own buffer/count pair, passed
// straight through).
func (p *PSGStub) GetBuffer() ([]float32, int) {
	return p.chip.GetBuffer()
}
