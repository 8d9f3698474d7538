//go:build !libretro

// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/genesis-core/emu"
	"github.com/user-none/genesis-core/ui"
)

// Genesis 3-button pad line bits, active-low: a pressed button clears its
// bit. Matches emu/io.go's connectedLines ordering (U,D,L,R,TL,TR,TH).
const (
	lineUp = 1 << iota
	lineDown
	lineLeft
	lineRight
	lineB // TL
	lineC // TR
	lineStart
)

// Runner wraps a Machine for command-line mode. It handles input polling
// (the scheduler doesn't poll input itself), following the same
// frontend-polls-and-pushes pattern the libretro build uses.
type Runner struct {
	machine     *emu.Machine
	audioPlayer *ui.AudioPlayer
	cropBorder  bool
}

// NewRunner creates a new Runner wrapping the given machine.
func NewRunner(m *emu.Machine, cropBorder bool) *Runner {
	player, err := ui.NewAudioPlayer()
	if err != nil {
		panic(err)
	}
	return &Runner{
		machine:     m,
		audioPlayer: player,
		cropBorder:  cropBorder,
	}
}

// Close cleans up the runner's resources.
func (r *Runner) Close() {
	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollInput()
	r.machine.RunFrame()

	samples, count := r.machine.AudioBuffer()
	r.audioPlayer.QueueSamples(samples[:count])

	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	fb := r.machine.Framebuffer()
	img := ebiten.NewImageFromImage(fb)
	opts := &ebiten.DrawImageOptions{}
	if r.cropBorder {
		bounds := fb.Bounds()
		sub := img.SubImage(image.Rect(bounds.Min.X+8, bounds.Min.Y, bounds.Max.X-8, bounds.Max.Y)).(*ebiten.Image)
		screen.DrawImage(sub, opts)
		return
	}
	screen.DrawImage(img, opts)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	bounds := r.machine.Framebuffer().Bounds()
	return bounds.Dx(), bounds.Dy()
}

// pollInput reads keyboard and gamepad input and pushes the combined line
// state for controller port 1 to the machine.
func (r *Runner) pollInput() {
	lines := uint8(0x7F) // all released (active-low)

	clear := func(pressed bool, bit uint8) {
		if pressed {
			lines &^= bit
		}
	}

	clear(ebiten.IsKeyPressed(ebiten.KeyW)||ebiten.IsKeyPressed(ebiten.KeyArrowUp), lineUp)
	clear(ebiten.IsKeyPressed(ebiten.KeyS)||ebiten.IsKeyPressed(ebiten.KeyArrowDown), lineDown)
	clear(ebiten.IsKeyPressed(ebiten.KeyA)||ebiten.IsKeyPressed(ebiten.KeyArrowLeft), lineLeft)
	clear(ebiten.IsKeyPressed(ebiten.KeyD)||ebiten.IsKeyPressed(ebiten.KeyArrowRight), lineRight)
	clear(ebiten.IsKeyPressed(ebiten.KeyZ), lineB)
	clear(ebiten.IsKeyPressed(ebiten.KeyX), lineC)
	clear(ebiten.IsKeyPressed(ebiten.KeyEnter), lineStart)

	// Gamepad support (first connected gamepad drives port 1)
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}

		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop), lineUp)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom), lineDown)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft), lineLeft)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight), lineRight)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom), lineB)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight), lineC)
		clear(ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight), lineStart)

		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		clear(axisX < -deadzone, lineLeft)
		clear(axisX > deadzone, lineRight)
		clear(axisY < -deadzone, lineUp)
		clear(axisY > deadzone, lineDown)
	}

	r.machine.SetInput(0, lines)
}
