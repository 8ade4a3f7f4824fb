package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	m "github.com/mouse-blink/qidicom/internal/model"
)

// UniqueNamer flattens sources into one directory and resolves basename
// clashes by appending " - dupN" before the extension. It is meant for
// sequential use within one run.
type UniqueNamer struct {
	dir      m.Path
	owners   map[m.Path]m.Path // output -> source that owns it
	assigned map[m.Path]m.Path // source -> output
	counters map[m.Path]int    // requested output -> next dup counter
}

// NewUniqueNamer creates a UniqueNamer placing outputs in dir.
func NewUniqueNamer(dir m.Path) *UniqueNamer {
	return &UniqueNamer{
		dir:      dir,
		owners:   make(map[m.Path]m.Path),
		assigned: make(map[m.Path]m.Path),
		counters: make(map[m.Path]int),
	}
}

// Claim marks dest as owned by source, e.g. for outputs of an earlier run.
func (u *UniqueNamer) Claim(source, dest m.Path) {
	u.owners[dest] = source
	u.assigned[source] = dest
}

// Resolve returns the output path for source. The same source always gets
// the same path and two sources never share one.
func (u *UniqueNamer) Resolve(source m.Path) m.Path {
	if out, ok := u.assigned[source]; ok {
		return out
	}

	requested := m.Path(filepath.Join(string(u.dir), filepath.Base(string(source))))

	if _, taken := u.owners[requested]; !taken {
		u.Claim(source, requested)

		return requested
	}

	base := filepath.Base(string(requested))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := u.counters[requested]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := m.Path(filepath.Join(string(u.dir), fmt.Sprintf("%s - dup%d%s", stem, counter, ext)))
		if _, taken := u.owners[candidate]; !taken {
			u.counters[requested] = counter + 1
			u.Claim(source, candidate)

			return candidate
		}

		counter++
	}
}

// Mapper returns the namer as a pipeline destination.
func (u *UniqueNamer) Mapper() m.PathMapper {
	return u.Resolve
}
