package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rafabd1/LPParser/utils"
)

const (
	barFilled = "█"
	barEmpty  = "▒"
)

// ProgressBar renders "████▒▒▒▒ [cur/total] [pct%]" on a single terminal line
type ProgressBar struct {
	total        int
	current      int
	width        int
	refresh      time.Duration
	startTime    time.Time
	mu           sync.Mutex
	done         chan struct{}
	tc           *TerminalController
	isActive     bool
	renderPaused bool
	suffix       string
}

// NewProgressBar creates a progress bar drawing through the global terminal controller
func NewProgressBar(total int, width int) *ProgressBar {
	return newProgressBar(GetTerminalController(), total, width)
}

func newProgressBar(tc *TerminalController, total int, width int) *ProgressBar {
	if width <= 0 {
		width = 50
	}
	return &ProgressBar{
		total:     total,
		width:     width,
		refresh:   100 * time.Millisecond,
		startTime: time.Now(),
		done:      make(chan struct{}),
		tc:        tc,
	}
}

// Start begins periodic rendering. Outside a terminal it does nothing
// but track counts.
func (pb *ProgressBar) Start() {
	pb.mu.Lock()
	if pb.isActive {
		pb.mu.Unlock()
		return
	}
	pb.startTime = time.Now()
	pb.isActive = true
	pb.mu.Unlock()

	if !pb.tc.IsTerminal() {
		return
	}
	pb.tc.SetProgressBarActive(true)

	go func() {
		ticker := time.NewTicker(pb.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-pb.done:
				return
			case <-ticker.C:
				pb.render()
			}
		}
	}()
}

// Stop halts rendering and clears the bar
func (pb *ProgressBar) Stop() {
	pb.mu.Lock()
	if !pb.isActive {
		pb.mu.Unlock()
		return
	}
	pb.isActive = false
	pb.mu.Unlock()

	close(pb.done)

	if pb.tc.IsTerminal() {
		pb.tc.CoordinateOutput(func() {})
		pb.tc.SetProgressBarActive(false)
	}
}

// Finalize draws the final state once, followed by a newline
func (pb *ProgressBar) Finalize() {
	if !pb.tc.IsTerminal() {
		return
	}
	pb.tc.CoordinateOutput(func() {
		fmt.Fprintln(pb.tc.out, pb.String())
	})
}

func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	pb.current = min(current, pb.total)
	pb.mu.Unlock()
}

func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	if pb.current < pb.total {
		pb.current++
	}
	pb.mu.Unlock()
}

func (pb *ProgressBar) Current() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current
}

// SetSuffix sets the text drawn after the ETA
func (pb *ProgressBar) SetSuffix(suffix string) {
	pb.mu.Lock()
	pb.suffix = suffix
	pb.mu.Unlock()
}

// PauseRender suspends drawing while a log line is written
func (pb *ProgressBar) PauseRender() {
	pb.mu.Lock()
	pb.renderPaused = true
	pb.mu.Unlock()
}

func (pb *ProgressBar) ResumeRender() {
	pb.mu.Lock()
	pb.renderPaused = false
	pb.mu.Unlock()
}

func (pb *ProgressBar) render() {
	pb.mu.Lock()
	skip := !pb.isActive || pb.renderPaused
	pb.mu.Unlock()
	if skip {
		return
	}

	line := pb.String()
	pb.tc.CoordinateOutput(func() {
		fmt.Fprint(pb.tc.out, line)
	})
}

// String formats the current state of the bar
func (pb *ProgressBar) String() string {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	percent := 0.0
	completed := 0
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total) * 100
		completed = pb.width * pb.current / pb.total
	}
	completed = min(completed, pb.width)

	elapsed := time.Since(pb.startTime)
	eta := "N/A"
	if pb.current > 0 && pb.current < pb.total {
		remaining := time.Duration(float64(elapsed) * float64(pb.total-pb.current) / float64(pb.current))
		eta = utils.FormatDuration(remaining)
	}

	bar := strings.Repeat(barFilled, completed) + strings.Repeat(barEmpty, pb.width-completed)

	return fmt.Sprintf("%s [%d/%d] [%.2f%%] %s ETA: %s%s",
		bar,
		pb.current, pb.total,
		percent,
		utils.FormatDuration(elapsed),
		eta,
		pb.suffix,
	)
}
