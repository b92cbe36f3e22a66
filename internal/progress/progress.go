package progress

import (
	"github.com/pterm/pterm"
)

// Enabled turns progress rendering on; the CLI sets it for interactive runs.
var Enabled = false

type ProgressTracker struct {
	bar *pterm.ProgressbarPrinter
}

func NewProgress(total int, message string) *ProgressTracker {
	if !Enabled || total <= 0 {
		return &ProgressTracker{}
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(message).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return &ProgressTracker{}
	}
	return &ProgressTracker{bar: bar}
}

func (p *ProgressTracker) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *ProgressTracker) Finish() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
	}
}
