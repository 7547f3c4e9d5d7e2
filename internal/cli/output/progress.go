package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Progress struct {
	bar     *progressbar.ProgressBar
	quiet   bool
	out     io.Writer
	started time.Time
}

type ProgressOption func(*Progress)

func ProgressWithQuiet(quiet bool) ProgressOption {
	return func(p *Progress) {
		p.quiet = quiet
	}
}

func ProgressWithOutput(out io.Writer) ProgressOption {
	return func(p *Progress) {
		p.out = out
	}
}

func NewProgress(total int, description string, opts ...ProgressOption) *Progress {
	p := &Progress{
		out:     os.Stderr,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.quiet {
		return p
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return p
}

func (p *Progress) Increment() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *Progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func (p *Progress) Duration() time.Duration {
	return time.Since(p.started)
}
