package server

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// BuildProgress reports CLI progress while the build command walks a
// dataset generating block files slice by slice. It is never used on
// the request-serving path - that progress is tracked per request group
// by ProgressTracker instead.
type BuildProgress interface {
	io.Writer
	Add(num int)
	Close() error
}

var (
	buildProgressMu sync.RWMutex
	quietBuild      bool
)

// SetQuietBuild suppresses the CLI progress bar, e.g. when stdout is not
// a terminal or the caller wants machine-readable-only output.
func SetQuietBuild(quiet bool) {
	buildProgressMu.Lock()
	defer buildProgressMu.Unlock()
	quietBuild = quiet
}

// NewBuildProgress creates a count-based progress bar for a build run of
// total slices, or a no-op tracker when quiet mode is set.
func NewBuildProgress(total int64, description string) BuildProgress {
	buildProgressMu.RLock()
	quiet := quietBuild
	buildProgressMu.RUnlock()
	if quiet {
		return &quietBuildProgress{}
	}
	return &buildProgressBar{bar: progressbar.Default(total, description)}
}

type buildProgressBar struct {
	bar *progressbar.ProgressBar
}

func (p *buildProgressBar) Write(data []byte) (int, error) {
	if p.bar == nil {
		return len(data), nil
	}
	return p.bar.Write(data)
}

func (p *buildProgressBar) Add(num int) {
	if p.bar != nil {
		p.bar.Add(num)
	}
}

func (p *buildProgressBar) Close() error {
	if p.bar != nil {
		return p.bar.Close()
	}
	return nil
}

type quietBuildProgress struct{}

func (q *quietBuildProgress) Write(data []byte) (int, error) { return len(data), nil }
func (q *quietBuildProgress) Add(num int)                    {}
func (q *quietBuildProgress) Close() error                   { return nil }
