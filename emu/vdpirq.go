package emu

// SetVBlank raises the live VBlank status flag (status bit3) and arms the
// one-shot VINT request the scheduler samples via PendingInterruptLevel.
// Called once per frame when the raster crosses into vblank.
func (v *VDP) SetVBlank() {
	v.status |= 0x08
	v.vintPending = true
}

// ClearVBlank lowers the VBlank status flag, called when the raster
// re-enters the active display area at the start of the next frame.
func (v *VDP) ClearVBlank() {
	v.status &^= 0x08
}

// SetSpriteOverflow and SetSpriteCollision raise their status bits; both
// are cleared the next time the control port is read.
func (v *VDP) SetSpriteOverflow()  { v.status |= 0x40 }
func (v *VDP) SetSpriteCollision() { v.status |= 0x20 }

// PendingInterruptLevel returns the 68K interrupt priority level the VDP
// wants serviced (6 for VINT, 4 for HINT), or 0 if neither is pending and
// enabled. VINT takes priority, matching real hardware's fixed level
// assignment.
func (v *VDP) PendingInterruptLevel() uint8 {
	if v.vintPending && v.vintEnabled() {
		return 6
	}
	if v.lineIntPending && v.hintEnabled() {
		return 4
	}
	return 0
}

// AcknowledgeInterrupt clears the one-shot pending flag for the level the
// scheduler just handed to the 68K core, so the same edge isn't requested
// twice.
func (v *VDP) AcknowledgeInterrupt(level uint8) {
	switch level {
	case 6:
		v.vintPending = false
	case 4:
		v.lineIntPending = false
	}
}
