package domain

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/mouse-blink/qidicom/internal/adapter"
	m "github.com/mouse-blink/qidicom/internal/model"
)

// ErrNoDestination is returned when Edit is called without a usable
// destination.
var ErrNoDestination = errors.New("no destination")

// EditOption configures a single Pipeline.Edit run.
type EditOption func(*editConfig)

type editConfig struct {
	skip      func(m.Path) bool
	onWritten func(m.WriteRecord)
	runID     string
	now       func() time.Time
}

// WithSkip excludes sources for which skip returns true. Excluded files are
// never read.
func WithSkip(skip func(m.Path) bool) EditOption {
	return func(c *editConfig) {
		c.skip = skip
	}
}

// OnWritten registers fn to be called after each completed write.
func OnWritten(fn func(m.WriteRecord)) EditOption {
	return func(c *editConfig) {
		c.onWritten = fn
	}
}

// WithRunID stamps every WriteRecord of the run with id.
func WithRunID(id string) EditOption {
	return func(c *editConfig) {
		c.runID = id
	}
}

// Pipeline is the copy-on-write edit pipeline.
type Pipeline struct {
	fs     adapter.SourceFSAdapter
	tags   adapter.TagAccessor
	walker *Walker
	log    log15.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(fs adapter.SourceFSAdapter, tags adapter.TagAccessor, logger log15.Logger) *Pipeline {
	logger = quietLogger(logger)

	return &Pipeline{
		fs:     fs,
		tags:   tags,
		walker: NewWalker(fs, tags, logger),
		log:    logger,
	}
}

// Edit returns a lazy sequence of the parseable files under sourceDir, each
// as a mutable TagView. When the consumer's loop body returns for a view, the
// view is written to its destination before the next file is read. A
// consumer that stops early leaves the file it was holding unwritten.
//
// The destination of each file is computed from its source path before the
// file is handed out. A FixedDirectory destination must already exist. A
// write failure is yielded once and ends the sequence; files already written
// stay in place. Files this run has written, and a FixedDirectory nested
// under sourceDir, are never read back as sources.
func (p *Pipeline) Edit(sourceDir m.Path, dest m.Destination, opts ...EditOption) (iter.Seq2[m.TagView, error], error) {
	computeDest, err := p.resolveDestination(dest)
	if err != nil {
		return nil, err
	}

	cfg := editConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	nested := nestedDestination(sourceDir, dest)

	return func(yield func(m.TagView, error) bool) {
		written := make(map[string]struct{})

		skip := func(path m.Path) bool {
			if cfg.skip != nil && cfg.skip(path) {
				return true
			}

			_, own := written[absPath(path)]

			return own || nested(path)
		}

		for view, err := range p.walker.scan(sourceDir, skip) {
			if err != nil {
				yield(nil, err)

				return
			}

			source := view.Path()
			target := computeDest(source)

			if !yield(view, nil) {
				p.log.Debug("edit stopped by consumer", "unwritten", source)

				return
			}

			n, err := p.tags.Save(view, target)
			if err != nil {
				yield(nil, fmt.Errorf("edit of %s: %w", source, err))

				return
			}

			written[absPath(target)] = struct{}{}

			p.log.Debug("wrote edited file", "source", source, "dest", target, "bytes", n)

			if cfg.onWritten != nil {
				cfg.onWritten(m.WriteRecord{
					RunID:     cfg.runID,
					Source:    source,
					Dest:      target,
					Bytes:     n,
					WrittenAt: cfg.now(),
				})
			}
		}
	}, nil
}

func (p *Pipeline) resolveDestination(dest m.Destination) (func(m.Path) m.Path, error) {
	switch d := dest.(type) {
	case m.FixedDirectory:
		if err := p.fs.RequireDir(d.Dir); err != nil {
			return nil, fmt.Errorf("destination %s: %w", d.Dir, err)
		}

		return func(source m.Path) m.Path {
			return p.fs.JoinPath(string(d.Dir), filepath.Base(string(source)))
		}, nil
	case m.PathMapper:
		if d == nil {
			return nil, fmt.Errorf("%w: nil path mapper", ErrNoDestination)
		}

		return d, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNoDestination, dest)
	}
}

// nestedDestination reports paths inside a FixedDirectory that lies strictly
// under sourceDir.
func nestedDestination(sourceDir m.Path, dest m.Destination) func(m.Path) bool {
	d, ok := dest.(m.FixedDirectory)
	if !ok {
		return func(m.Path) bool { return false }
	}

	dir := absPath(d.Dir)
	if dir == absPath(sourceDir) || !within(absPath(sourceDir), dir) {
		return func(m.Path) bool { return false }
	}

	return func(path m.Path) bool {
		return within(dir, absPath(path))
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func absPath(path m.Path) string {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return filepath.Clean(string(path))
	}

	return abs
}
