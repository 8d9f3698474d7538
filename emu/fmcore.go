package emu

// FMCore is the interface the bus expects from the YM2612 FM sound chip.
// The YM2612's own register/operator/envelope model is an external
// collaborator per the system's scope: bus.go only needs a place to send
// port writes and read chip status, not a full FM synthesis engine.
type FMCore interface {
	// Write latches a register address (port 0/2) or data byte (port 1/3),
	// per the four $A04000-$A04003 ports bus.go's readA0/writeA0 decode.
	Write(port uint8, data uint8)

	// Status returns the busy/timer-overflow status byte read back from
	// any of the four YM2612 ports.
	Status() uint8
}

// silentFM is the zero-collaborator FMCore: it accepts writes and always
// reports idle status, enough to keep software that polls the busy flag
// from hanging without producing audio. Stands in until a real YM2612 core
// is wired at the scheduler's construction site.
type silentFM struct{}

// NewSilentFMCore returns an FMCore that discards writes and never reports
// busy.
func NewSilentFMCore() FMCore { return silentFM{} }

func (silentFM) Write(port uint8, data uint8) {}
func (silentFM) Status() uint8                { return 0x00 }
