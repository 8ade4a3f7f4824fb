package domain

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/mouse-blink/qidicom/internal/adapter"
	m "github.com/mouse-blink/qidicom/internal/model"
)

// Hierarchy reads the Subject / Study / Series / Instance hierarchy of an
// image tree. Every method starts a fresh traversal; the sequences are lazy
// and single-pass, and traversal order is not guaranteed.
type Hierarchy interface {
	ReadHierarchy(root m.Path) iter.Seq2[m.HierarchyPath, error]
	Instances(root m.Path) iter.Seq2[m.Instance, error]
	GroupBy(tagName string, root m.Path) (m.GroupMapping, error)
}

// Walker is the Hierarchy over a SourceFSAdapter and a TagAccessor.
type Walker struct {
	fs   adapter.SourceFSAdapter
	tags adapter.TagAccessor
	skip func(m.Path) bool
	log  log15.Logger
}

// NewWalker creates a Walker. A nil logger discards skip messages.
func NewWalker(fs adapter.SourceFSAdapter, tags adapter.TagAccessor, logger log15.Logger) *Walker {
	return &Walker{fs: fs, tags: tags, log: quietLogger(logger)}
}

// Excluding returns a copy of w that passes over files for which skip
// returns true, without reading them.
func (w *Walker) Excluding(skip func(m.Path) bool) *Walker {
	c := *w
	c.skip = skip

	return &c
}

// ReadHierarchy yields the hierarchy path of every file under root that
// parses and carries all four hierarchy tags. Duplicates from distinct files
// are all yielded. A root that cannot be read yields one error.
func (w *Walker) ReadHierarchy(root m.Path) iter.Seq2[m.HierarchyPath, error] {
	return func(yield func(m.HierarchyPath, error) bool) {
		for inst, err := range w.Instances(root) {
			if err != nil {
				yield(m.HierarchyPath{}, err)

				return
			}

			if !yield(inst.Hierarchy, nil) {
				return
			}
		}
	}
}

// Instances is ReadHierarchy with the source file of each path.
func (w *Walker) Instances(root m.Path) iter.Seq2[m.Instance, error] {
	return func(yield func(m.Instance, error) bool) {
		for view, err := range w.scan(root, nil) {
			if err != nil {
				yield(m.Instance{}, err)

				return
			}

			h, ok := HierarchyOf(view)
			if !ok {
				w.log.Debug("skipping file without hierarchy tags", "path", view.Path())

				continue
			}

			if !yield(m.Instance{File: view.Path(), Hierarchy: h}, nil) {
				return
			}
		}
	}
}

// GroupBy partitions the files under root by the value of tagName. Files
// that fail to parse or lack the tag are left out.
func (w *Walker) GroupBy(tagName string, root m.Path) (m.GroupMapping, error) {
	groups := make(map[m.Value][]m.Path)

	for view, err := range w.scan(root, nil) {
		if err != nil {
			return m.GroupMapping{}, err
		}

		addToGroup(groups, tagName, view, w.log)
	}

	return m.NewGroupMapping(groups), nil
}

// scan lazily opens the files under root. Files matching skip are passed over
// before they are read. Unreadable or unparseable files are logged and
// skipped. Only a failure on root itself is yielded.
func (w *Walker) scan(root m.Path, skip func(m.Path) bool) iter.Seq2[m.TagView, error] {
	return func(yield func(m.TagView, error) bool) {
		for path, err := range w.fs.Files(root) {
			if err != nil {
				if path == root {
					yield(nil, fmt.Errorf("reading %s: %w", root, err))

					return
				}

				w.log.Debug("skipping unreadable path", "path", path, "err", err)

				continue
			}

			if (w.skip != nil && w.skip(path)) || (skip != nil && skip(path)) {
				w.log.Debug("skipping excluded file", "path", path)

				continue
			}

			view, err := w.tags.Open(path)
			if err != nil {
				w.log.Debug("skipping unparseable file", "path", path, "err", err)

				continue
			}

			if !yield(view, nil) {
				return
			}
		}
	}
}

// HierarchyOf extracts the hierarchy path of view. It reports false when any
// of PatientID, StudyInstanceUID, SeriesInstanceUID or InstanceNumber is
// missing or empty, or when InstanceNumber is not an integer.
func HierarchyOf(view m.TagView) (m.HierarchyPath, bool) {
	subject, ok := textTag(view, m.TagSubject)
	if !ok {
		return m.HierarchyPath{}, false
	}

	study, ok := textTag(view, m.TagStudy)
	if !ok {
		return m.HierarchyPath{}, false
	}

	series, ok := textTag(view, m.TagSeries)
	if !ok {
		return m.HierarchyPath{}, false
	}

	instance, ok := intTag(view, m.TagInstance)
	if !ok {
		return m.HierarchyPath{}, false
	}

	return m.HierarchyPath{Subject: subject, Study: study, Series: series, Instance: instance}, true
}

func textTag(view m.TagView, name string) (string, bool) {
	v, ok := view.Get(name)
	if !ok {
		return "", false
	}

	var s string

	switch t := v.(type) {
	case string:
		s = t
	case []string:
		s = strings.Join(t, `\`)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)

	return s, s != ""
}

func intTag(view m.TagView, name string) (int, bool) {
	v, ok := view.Get(name)
	if !ok {
		return 0, false
	}

	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}

		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))

		return n, err == nil
	default:
		return 0, false
	}
}

func addToGroup(groups map[m.Value][]m.Path, tagName string, view m.TagView, logger log15.Logger) {
	v, ok := view.Get(tagName)
	if !ok || v == nil {
		logger.Debug("skipping file without tag", "path", view.Path(), "tag", tagName)

		return
	}

	key := m.NormalizeKey(v)
	groups[key] = append(groups[key], view.Path())
}
