package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/richardwooding/dotmatrix/internal/emulator"
	"github.com/richardwooding/dotmatrix/internal/input"
	"github.com/richardwooding/dotmatrix/internal/logger"
	"github.com/richardwooding/dotmatrix/internal/ppu"
	"github.com/richardwooding/dotmatrix/internal/recorder"
	"github.com/richardwooding/dotmatrix/internal/screenshot"
)

// Hotkeys handled by the window.
const (
	keySaveState  = ebiten.KeyF5
	keyLoadState  = ebiten.KeyF8
	keyScreenshot = ebiten.KeyF12
	keyPause      = ebiten.KeyP
	keyQuit       = ebiten.KeyEscape
)

var keyMap = map[ebiten.Key]input.Button{
	ebiten.KeyArrowUp:    input.ButtonUp,
	ebiten.KeyArrowDown:  input.ButtonDown,
	ebiten.KeyArrowLeft:  input.ButtonLeft,
	ebiten.KeyArrowRight: input.ButtonRight,
	ebiten.KeyZ:          input.ButtonA,
	ebiten.KeyX:          input.ButtonB,
	ebiten.KeyEnter:      input.ButtonStart,
	ebiten.KeyShift:      input.ButtonSelect,
}

var gamepadMap = map[ebiten.StandardGamepadButton]input.Button{
	ebiten.StandardGamepadButtonLeftTop:     input.ButtonUp,
	ebiten.StandardGamepadButtonLeftBottom:  input.ButtonDown,
	ebiten.StandardGamepadButtonLeftLeft:    input.ButtonLeft,
	ebiten.StandardGamepadButtonLeftRight:   input.ButtonRight,
	ebiten.StandardGamepadButtonRightBottom: input.ButtonA,
	ebiten.StandardGamepadButtonRightRight:  input.ButtonB,
	ebiten.StandardGamepadButtonCenterRight: input.ButtonStart,
	ebiten.StandardGamepadButtonCenterLeft:  input.ButtonSelect,
}

// DisplayOptions configures the window front end.
type DisplayOptions struct {
	ROMPath   string
	StateFile string
	Scale     int
	Mute      bool
	Volume    float64

	// Recorder, when set, receives every sample the APU produces.
	Recorder *recorder.Recorder
}

// Display implements the Ebiten game interface for the emulator.
type Display struct {
	emulator *emulator.Emulator
	opts     DisplayOptions
	screen   *ebiten.Image
	pixels   []byte
	audio    *AudioPlayer
	paused   bool
	gamepads []ebiten.GamepadID
}

// NewDisplay creates a display for the emulator. Audio is optional: when the
// device cannot be opened the emulator runs silently.
func NewDisplay(emu *emulator.Emulator, opts DisplayOptions) *Display {
	d := &Display{
		emulator: emu,
		opts:     opts,
		screen:   ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels:   make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4),
	}

	if !opts.Mute {
		var tap func(...int16)
		if opts.Recorder != nil {
			tap = opts.Recorder.Add
		}
		player, err := NewAudioPlayer(emu.Samples(), opts.Volume, tap)
		if err != nil {
			logger.Logf("audio", "audio disabled: %v", err)
		} else {
			d.audio = player
			player.Start()
		}
	}
	return d
}

// Update runs one frame. Ebiten calls it 60 times per second, close to the
// hardware's 59.73 Hz.
func (d *Display) Update() error {
	if inpututil.IsKeyJustPressed(keyQuit) {
		return ebiten.Termination
	}
	d.handleHotkeys()

	if d.paused {
		return nil
	}

	d.emulator.SetButtons(d.buttons())
	d.emulator.RunFrame()

	// Without an audio device nothing drains the ring.
	if d.audio == nil && d.opts.Recorder != nil {
		d.opts.Recorder.Drain(d.emulator.Samples())
	}
	return nil
}

func (d *Display) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(keyPause):
		d.paused = !d.paused
		if d.audio != nil {
			if d.paused {
				d.audio.Stop()
			} else {
				d.audio.Start()
			}
		}

	case inpututil.IsKeyJustPressed(keySaveState):
		_ = d.emulator.SaveStateFile(d.opts.StateFile)

	case inpututil.IsKeyJustPressed(keyLoadState):
		// A failed load is logged and leaves the machine running as it was.
		_ = d.emulator.LoadStateFile(d.opts.StateFile)

	case inpututil.IsKeyJustPressed(keyScreenshot):
		path := fmt.Sprintf("%s-%06d.png",
			strings.TrimSuffix(d.opts.ROMPath, filepath.Ext(d.opts.ROMPath)), d.emulator.Frames())
		if err := screenshot.Save(path, d.emulator.Framebuffer(), d.opts.Scale); err != nil {
			logger.Logf("screenshot", "%v", err)
		}
	}
}

// buttons reads the keyboard and every connected standard gamepad.
func (d *Display) buttons() input.Button {
	var mask input.Button
	for key, button := range keyMap {
		if ebiten.IsKeyPressed(key) {
			mask |= button
		}
	}

	d.gamepads = ebiten.AppendGamepadIDs(d.gamepads[:0])
	for _, id := range d.gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for gb, button := range gamepadMap {
			if ebiten.IsStandardGamepadButtonPressed(id, gb) {
				mask |= button
			}
		}
	}
	return mask
}

// Draw copies the last completed frame to the window.
func (d *Display) Draw(screen *ebiten.Image) {
	for i, shade := range d.emulator.Framebuffer() {
		c := screenshot.Palette[shade&0x03]
		offset := i * 4
		d.pixels[offset] = c.R
		d.pixels[offset+1] = c.G
		d.pixels[offset+2] = c.B
		d.pixels[offset+3] = c.A
	}

	d.screen.WritePixels(d.pixels)
	screen.DrawImage(d.screen, nil)
}

// Layout returns the game screen size.
func (d *Display) Layout(_, _ int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}
