package course

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gammazero/workerpool"
	"github.com/samber/lo"
)

// ListerOptions configures a Lister.
type ListerOptions struct {
	// Workers bounds how many course files are parsed at once.
	Workers int
}

func DefaultListerOptions() ListerOptions {
	return ListerOptions{
		Workers: 4,
	}
}

// Lister scans a course directory on every call. Nothing is cached between
// calls.
type Lister struct {
	dir     string
	relDir  string
	options ListerOptions
}

// NewLister returns a Lister reading dir. relDir is the prefix used for the
// File field of each descriptor, relative to the static root.
func NewLister(dir, relDir string, options ListerOptions) *Lister {
	if options.Workers <= 0 {
		options.Workers = 1
	}

	return &Lister{
		dir:     dir,
		relDir:  relDir,
		options: options,
	}
}

// List returns one descriptor per *.json entry, sorted by filename. A missing
// directory yields an empty slice. Files that cannot be parsed keep their
// default descriptor.
func (l *Lister) List(ctx context.Context) []Descriptor {
	names := l.courseFiles()
	descriptors := lo.Map(names, func(name string, _ int) Descriptor {
		return NewDescriptor(l.relDir, name)
	})
	if len(names) == 0 {
		return descriptors
	}

	results := make([]ParseResult, len(names))

	wp := workerpool.New(min(l.options.Workers, len(names)))
	for i, name := range names {
		if ctx.Err() != nil {
			break
		}

		wp.Submit(func() {
			results[i] = ParseFile(filepath.Join(l.dir, name))
		})
	}
	wp.StopWait()

	for i := range descriptors {
		if err := results[i].Err; err != nil {
			slog.Debug("using default course name", slog.String("file", names[i]), slog.String("error", err.Error()))
		}
		descriptors[i] = descriptors[i].Apply(results[i])
	}

	return descriptors
}

func (l *Lister) courseFiles() []string {
	// os.ReadDir はファイル名順に並べて返す。途中で失敗しても読めた分は使う
	entries, err := os.ReadDir(l.dir)
	if err != nil && len(entries) == 0 {
		if !os.IsNotExist(err) {
			slog.Debug("course directory unreadable", slog.String("dir", l.dir), slog.String("error", err.Error()))
		}
		return []string{}
	}

	names := lo.Map(entries, func(e os.DirEntry, _ int) string {
		return e.Name()
	})

	return lo.Filter(names, func(name string, _ int) bool {
		return IsCourseFile(name)
	})
}
