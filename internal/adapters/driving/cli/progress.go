package cli

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// progressReporter draws embedding progress while an index is built.
// A disabled reporter ignores updates.
type progressReporter struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
	total   int
}

func newProgressReporter(w io.Writer, enabled bool) *progressReporter {
	return &progressReporter{w: w, enabled: enabled}
}

// Update records that done of total chunks are embedded.
func (p *progressReporter) Update(done, total int) {
	if !p.enabled || total <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.total != total {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Embedding chunks"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		p.total = total
	}
	_ = p.bar.Set(done)
}

// Finish clears the bar. It is safe to call more than once.
func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
