// Package monitoring holds the pipeline's diagnostic logging hooks.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests mute it; the CLIs leave it on stderr.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Progress reports a long-running loop through Logf every Every items and
// once more on Done.
type Progress struct {
	Label string
	Total int
	Every int

	done  int
	start time.Time
}

// NewProgress creates a progress reporter. A non-positive every picks
// roughly ten reports over total.
func NewProgress(label string, total, every int) *Progress {
	if every <= 0 {
		every = total / 10
		if every < 1 {
			every = 1
		}
	}
	return &Progress{Label: label, Total: total, Every: every, start: time.Now()}
}

// Add advances the counter by n and logs when a reporting boundary is crossed.
func (p *Progress) Add(n int) {
	before := p.done / p.Every
	p.done += n
	if p.done/p.Every != before {
		p.log()
	}
}

// Count returns the number of items processed so far.
func (p *Progress) Count() int { return p.done }

// Done logs the final count and elapsed time.
func (p *Progress) Done() {
	Logf("%s: done %d items in %v", p.Label, p.done, time.Since(p.start).Round(time.Millisecond))
}

func (p *Progress) log() {
	if p.Total > 0 {
		Logf("%s: %d/%d (%.1f%%)", p.Label, p.done, p.Total, 100*float64(p.done)/float64(p.Total))
		return
	}
	Logf("%s: %d", p.Label, p.done)
}
