// Package testrom runs Blargg-style test ROMs, which report their verdict as
// text over the serial port.
package testrom

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/richardwooding/dotmatrix/internal/emulator"
)

// Result is what a test ROM printed and how the run ended.
type Result struct {
	Output  string // serial text captured so far
	Passed  bool
	Failed  bool
	Timeout bool // no new serial output within the timeout
	Error   error

	// Cycles is how long the ROM ran in CPU clock cycles.
	Cycles  uint64
	Elapsed time.Duration
}

// Run executes the test ROM at romPath. timeout bounds the wait for new
// serial output, not the whole run.
func Run(romPath string, timeout time.Duration) *Result {
	data, err := os.ReadFile(romPath) // #nosec G304 - caller-chosen test ROM
	if err != nil {
		return &Result{Error: fmt.Errorf("read test ROM: %w", err)}
	}
	return RunROM(data, timeout)
}

// RunROM executes a test ROM image.
func RunROM(data []byte, timeout time.Duration) *Result {
	emu, err := emulator.New(data)
	if err != nil {
		return &Result{Error: fmt.Errorf("load test ROM: %w", err)}
	}

	start := time.Now()
	output, err := emu.RunUntilOutput(timeout)
	r := &Result{
		Output:  output,
		Cycles:  emu.CPU.Cycles,
		Elapsed: time.Since(start),
	}
	if err != nil {
		r.Timeout = errors.Is(err, emulator.ErrTimeout)
		r.Error = err
		return r
	}

	// "Failed" wins when both appear.
	r.Failed = strings.Contains(output, "Failed")
	r.Passed = !r.Failed && strings.Contains(output, "Passed")
	return r
}

// String is the one-word verdict, or the error.
func (r *Result) String() string {
	switch {
	case r.Timeout:
		return "TIMEOUT"
	case r.Error != nil:
		return fmt.Sprintf("ERROR: %v", r.Error)
	case r.Passed:
		return "PASSED"
	case r.Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess reports a clean pass.
func (r *Result) IsSuccess() bool {
	return r.Error == nil && r.Passed
}
