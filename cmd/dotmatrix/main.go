// Package main provides the dotmatrix CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/term"

	"github.com/richardwooding/dotmatrix/internal/cartridge"
	"github.com/richardwooding/dotmatrix/internal/emulator"
	"github.com/richardwooding/dotmatrix/internal/logger"
	"github.com/richardwooding/dotmatrix/internal/recorder"
	"github.com/richardwooding/dotmatrix/internal/screenshot"
	"github.com/richardwooding/dotmatrix/internal/testrom"
)

var (
	// ErrTestFailed indicates a test ROM failed.
	ErrTestFailed = errors.New("test failed")

	// ErrNoFrames indicates a headless command was asked to run no frames.
	ErrNoFrames = errors.New("frames must be at least 1")
)

// statsviewAddr is where --statsview serves runtime charts.
const statsviewAddr = "localhost:12600"

// CLI represents the command-line interface structure.
type CLI struct {
	Config  kong.ConfigFlag `help:"Load flag defaults from a JSON file." placeholder:"FILE"`
	Verbose bool            `short:"v" help:"Echo the emulator log to stderr."`

	Info       InfoCmd       `cmd:"" help:"Display cartridge information."`
	Run        RunCmd        `cmd:"" help:"Run a Game Boy ROM."`
	Test       TestCmd       `cmd:"" help:"Run a test ROM and report results."`
	Record     RecordCmd     `cmd:"" help:"Run a ROM headless and record its audio to WAV."`
	Screenshot ScreenshotCmd `cmd:"" help:"Run a ROM headless and save the last frame as PNG."`
}

func validateFrames(frames int) error {
	if frames < 1 {
		return fmt.Errorf("%w: got %d", ErrNoFrames, frames)
	}
	return nil
}

func loadEmulator(romPath string) (*emulator.Emulator, error) {
	// #nosec G304 - romPath is provided by the user via CLI argument
	data, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}

	emu, err := emulator.New(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create emulator: %w", err)
	}
	return emu, nil
}

// InfoCmd displays cartridge header information.
type InfoCmd struct {
	ROM string `arg:"" type:"existingfile" help:"Path to ROM file."`
}

// Run executes the info command.
func (c *InfoCmd) Run() error {
	// #nosec G304 - ROM path is provided by the user via CLI argument
	data, err := os.ReadFile(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	cart, err := cartridge.New(data)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	header := cart.Header()
	ramSize, known := header.GetRAMSizeBytes()
	ramNote := ""
	if !known {
		ramNote = " (unknown code, assumed)"
	}

	fmt.Printf("ROM Information:\n")
	fmt.Printf("  Title:           %s\n", header.GetTitle())
	fmt.Printf("  Cartridge Type:  %s (0x%02X)\n", cartridge.CartridgeType(header.CartridgeType), header.CartridgeType)
	fmt.Printf("  ROM Size:        %d KiB (%d banks)\n", header.GetROMSizeBytes()/1024, header.GetROMBanks())
	fmt.Printf("  RAM Size:        %d KiB%s\n", ramSize/1024, ramNote)
	fmt.Printf("  Has Battery:     %v\n", cart.HasBattery())
	fmt.Printf("  Header Checksum: %s\n", checksumStatus(header.VerifyHeaderChecksum(data)))
	fmt.Printf("  Global Checksum: %s\n", checksumStatus(header.VerifyGlobalChecksum(data)))
	fmt.Printf("  CGB Flag:        0x%02X\n", header.CGBFlag)
	fmt.Printf("  SGB Flag:        0x%02X\n", header.SGBFlag)

	return nil
}

func checksumStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "mismatch"
}

// RunCmd runs a Game Boy ROM.
type RunCmd struct {
	ROM       string  `arg:"" type:"existingfile" help:"Path to ROM file."`
	Scale     int     `help:"Display scale factor (1-10)." default:"3"`
	Mute      bool    `help:"Disable audio output."`
	Volume    float64 `help:"Audio volume (0-1)." default:"0.7"`
	StateFile string  `help:"Quick save file for F5/F8 (default <rom>.state)." type:"path"`
	NoBattery bool    `help:"Do not load or store battery-backed RAM."`
	Record    string  `help:"Record audio to this WAV file." type:"path" placeholder:"FILE"`
	Statsview bool    `help:"Serve runtime statistics on ${statsview_addr}."`
}

// Run executes the run command.
func (c *RunCmd) Run() (rerr error) {
	if err := screenshot.ValidateScale(c.Scale); err != nil {
		return err
	}

	emu, err := loadEmulator(c.ROM)
	if err != nil {
		return err
	}

	batteryPath := emulator.BatteryPath(c.ROM)
	if !c.NoBattery {
		if err := emu.LoadBattery(batteryPath); err != nil && !errors.Is(err, emulator.ErrNoBattery) {
			return err
		}
		defer func() {
			if err := emu.SaveBattery(batteryPath); err != nil && !errors.Is(err, emulator.ErrNoBattery) && rerr == nil {
				rerr = err
			}
		}()
	}

	stateFile := c.StateFile
	if stateFile == "" {
		stateFile = strings.TrimSuffix(c.ROM, filepath.Ext(c.ROM)) + ".state"
	}

	var rec *recorder.Recorder
	if c.Record != "" {
		rec = recorder.New(c.Record)
		defer func() {
			if err := rec.Close(); err != nil && rerr == nil {
				rerr = err
			}
		}()
	}

	if c.Statsview {
		go func() {
			viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
			statsview.New().Start()
		}()
		fmt.Fprintf(os.Stderr, "stats server available at http://%s/debug/statsview\n", statsviewAddr)
	}

	display := NewDisplay(emu, DisplayOptions{
		ROMPath:   c.ROM,
		StateFile: stateFile,
		Scale:     c.Scale,
		Mute:      c.Mute,
		Volume:    c.Volume,
		Recorder:  rec,
	})

	ebiten.SetWindowTitle("dotmatrix - " + emu.Cartridge().Header().GetTitle())
	ebiten.SetWindowSize(160*c.Scale, 144*c.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(display); err != nil {
		return fmt.Errorf("emulator error: %w", err)
	}
	return nil
}

// TestCmd runs a test ROM and reports results.
type TestCmd struct {
	ROM     string `arg:"" type:"existingfile" help:"Path to test ROM file."`
	Timeout int    `default:"30" help:"Seconds to wait for new serial output."`
	Output  bool   `help:"Always show the serial output."`
}

// Run executes the test command.
func (c *TestCmd) Run() error {
	fmt.Printf("Running test ROM: %s\n", c.ROM)

	timeout := time.Duration(c.Timeout) * time.Second
	result := testrom.Run(c.ROM, timeout)

	fmt.Printf("Result: %s (%d cycles in %v)\n", result, result.Cycles, result.Elapsed.Round(time.Millisecond))

	if c.Output || !result.IsSuccess() {
		fmt.Printf("\nOutput:\n%s\n", result.Output)
	}

	if !result.IsSuccess() {
		return ErrTestFailed
	}
	return nil
}

// RecordCmd runs a ROM without a window and writes its audio to a WAV file.
type RecordCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Output string `arg:"" type:"path" help:"WAV file to write."`
	Frames int    `default:"600" help:"Number of frames to run."`
}

// Run executes the record command.
func (c *RecordCmd) Run(ctx context.Context) error {
	if err := validateFrames(c.Frames); err != nil {
		return err
	}

	emu, err := loadEmulator(c.ROM)
	if err != nil {
		return err
	}

	rec := recorder.New(c.Output)
	for range c.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		emu.RunFrame()
		rec.Drain(emu.Samples())
	}

	if err := rec.Close(); err != nil {
		return err
	}
	fmt.Printf("Recorded %.1fs of audio to %s\n", rec.Duration(), c.Output)
	return nil
}

// ScreenshotCmd runs a ROM without a window and saves the final frame.
type ScreenshotCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Output string `arg:"" type:"path" help:"PNG file to write."`
	Frames int    `default:"60" help:"Number of frames to run."`
	Scale  int    `default:"3" help:"Image scale factor (1-10)."`
}

// Run executes the screenshot command.
func (c *ScreenshotCmd) Run(ctx context.Context) error {
	if err := screenshot.ValidateScale(c.Scale); err != nil {
		return err
	}
	if err := validateFrames(c.Frames); err != nil {
		return err
	}

	emu, err := loadEmulator(c.ROM)
	if err != nil {
		return err
	}
	if err := emu.RunFrames(ctx, c.Frames); err != nil {
		return err
	}

	if err := screenshot.Save(c.Output, emu.Framebuffer(), c.Scale); err != nil {
		return err
	}
	fmt.Printf("Saved frame %d to %s\n", emu.Frames(), c.Output)
	return nil
}

// echoLog routes the central log to stderr, dimming tags on a terminal.
func echoLog() {
	if term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec // G115: file descriptors fit in int
		logger.SetEcho(logger.NewColorizer(os.Stderr))
		return
	}
	logger.SetEcho(os.Stderr)
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("dotmatrix"),
		kong.Description("A Game Boy (DMG) emulator written in Go."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/dotmatrix/config.json", ".dotmatrix.json"),
		kong.Vars{"statsview_addr": statsviewAddr},
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)

	if cli.Verbose {
		echoLog()
	}

	err := ctx.Run()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
