package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rafabd1/LPParser/utils"
)

// TerminalController serializes writes to the terminal so log lines and
// the progress bar never interleave
type TerminalController struct {
	mu             sync.Mutex
	outputMu       sync.Mutex
	out            io.Writer
	isTerminal     bool
	hasProgressBar bool
}

var (
	terminalController *TerminalController
	once               sync.Once
)

// GetTerminalController returns the process wide controller bound to stderr
func GetTerminalController() *TerminalController {
	once.Do(func() {
		terminalController = NewTerminalController(os.Stderr, utils.IsTerminal(os.Stderr.Fd()))
	})
	return terminalController
}

// NewTerminalController creates a controller for out
func NewTerminalController(out io.Writer, isTerminal bool) *TerminalController {
	return &TerminalController{
		out:        out,
		isTerminal: isTerminal,
	}
}

func (tc *TerminalController) SetProgressBarActive(active bool) {
	tc.mu.Lock()
	tc.hasProgressBar = active
	tc.mu.Unlock()
}

func (tc *TerminalController) HasProgressBar() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.hasProgressBar
}

// ClearLine erases the current line, only on a terminal
func (tc *TerminalController) ClearLine() {
	if tc.isTerminal {
		fmt.Fprint(tc.out, "\033[2K\r")
	}
}

// CoordinateOutput runs fn with exclusive access to the terminal,
// wiping the progress bar line first when one is drawn
func (tc *TerminalController) CoordinateOutput(fn func()) {
	tc.outputMu.Lock()
	defer tc.outputMu.Unlock()

	if tc.HasProgressBar() {
		tc.ClearLine()
	}
	fn()
}

func (tc *TerminalController) IsTerminal() bool {
	return tc.isTerminal
}
