package domain

import (
	"github.com/inconshreveable/log15"
	"github.com/mouse-blink/qidicom/internal/adapter"
	m "github.com/mouse-blink/qidicom/internal/model"
)

// Grouper partitions an explicit list of files by the value of one tag.
type Grouper interface {
	Group(tagName string, files []m.Path) m.GroupMapping
}

type grouper struct {
	tags adapter.TagAccessor
	log  log15.Logger
}

// NewGrouper creates a Grouper reading files through tags.
func NewGrouper(tags adapter.TagAccessor, logger log15.Logger) Grouper {
	return &grouper{tags: tags, log: quietLogger(logger)}
}

// Group opens each file and groups it under its tag value. Files that fail to
// parse or lack the tag are left out, so the union of the groups is exactly
// the set of files carrying the tag.
func (g *grouper) Group(tagName string, files []m.Path) m.GroupMapping {
	groups := make(map[m.Value][]m.Path)

	for _, path := range files {
		view, err := g.tags.Open(path)
		if err != nil {
			g.log.Debug("skipping unparseable file", "path", path, "err", err)

			continue
		}

		addToGroup(groups, tagName, view, g.log)
	}

	return m.NewGroupMapping(groups)
}
