package progress

import (
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Console renders progress reports to a schollz/progressbar bar, starting
// a fresh bar whenever the reported total changes, so each run phase
// (discovery, embedding) gets its own bar.
type Console struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
}

// NewConsole constructs a console progress sink.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Report(r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar == nil || c.total != r.Total {
		c.total = r.Total
		c.bar = progressbar.NewOptions(r.Total,
			progressbar.OptionSetDescription(r.Message),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}
	c.bar.Describe(r.Message)
	_ = c.bar.Set(r.Processed)
}
