package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Value is the value of one tag. Text tags are string (or []string when
// multi-valued), integer tags are int64 and decimal tags are float64. nil
// stands for an absent tag. Values of other representations are passed
// through in their codec form.
type Value = any

// TagView is the name-keyed view over the metadata of one image file.
type TagView interface {
	// Path is the file the view was read from.
	Path() Path
	// Get returns the value of the named tag and whether it is present.
	Get(name string) (Value, bool)
	// Set replaces the named tag. A nil value removes it.
	Set(name string, value Value) error
	// Names lists the tags present in the view.
	Names() []string
}

// MapTagView is an in-memory TagView.
type MapTagView struct {
	path   Path
	values map[string]Value
}

// NewMapTagView copies values into a new MapTagView bound to path.
func NewMapTagView(path Path, values map[string]Value) *MapTagView {
	v := &MapTagView{path: path, values: make(map[string]Value, len(values))}
	for name, value := range values {
		if value != nil {
			v.values[name] = value
		}
	}

	return v
}

// Path implements TagView.
func (v *MapTagView) Path() Path {
	return v.path
}

// Get implements TagView.
func (v *MapTagView) Get(name string) (Value, bool) {
	value, ok := v.values[name]

	return value, ok
}

// Set implements TagView.
func (v *MapTagView) Set(name string, value Value) error {
	if value == nil {
		delete(v.values, name)

		return nil
	}

	v.values[name] = value

	return nil
}

// Names implements TagView.
func (v *MapTagView) Names() []string {
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NormalizeKey turns a tag value into a comparable grouping key. Multi-valued
// text is joined with the DICOM value delimiter and NaN becomes "NaN", since a
// NaN map key never equals itself.
func NormalizeKey(value Value) Value {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return "NaN"
		}

		return v
	case string, int64:
		return v
	case int:
		return int64(v)
	case []string:
		if len(v) == 1 {
			return v[0]
		}

		return strings.Join(v, `\`)
	default:
		return fmt.Sprint(v)
	}
}

// GroupMapping is an immutable partition of files by tag value. Keys are
// unique, groups are non-empty and no file appears in two groups.
type GroupMapping struct {
	groups map[Value][]Path
}

// NewGroupMapping builds a GroupMapping from groups. Keys are normalised,
// empty groups are dropped and each group is sorted.
func NewGroupMapping(groups map[Value][]Path) GroupMapping {
	g := GroupMapping{groups: make(map[Value][]Path, len(groups))}

	for key, files := range groups {
		if len(files) == 0 {
			continue
		}

		k := NormalizeKey(key)
		g.groups[k] = append(g.groups[k], files...)
	}

	for _, files := range g.groups {
		sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	}

	return g
}

// Len is the number of groups.
func (g GroupMapping) Len() int {
	return len(g.groups)
}

// Has reports whether key names a group.
func (g GroupMapping) Has(key Value) bool {
	_, ok := g.groups[NormalizeKey(key)]

	return ok
}

// Files returns a copy of the group for key, or nil.
func (g GroupMapping) Files(key Value) []Path {
	files, ok := g.groups[NormalizeKey(key)]
	if !ok {
		return nil
	}

	out := make([]Path, len(files))
	copy(out, files)

	return out
}

// Keys returns the group keys. Numbers sort before text, each in natural
// order.
func (g GroupMapping) Keys() []Value {
	keys := make([]Value, 0, len(g.groups))
	for key := range g.groups {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return lessValue(keys[i], keys[j]) })

	return keys
}

func lessValue(a, b Value) bool {
	af, aNum := numeric(a)
	bf, bNum := numeric(b)

	switch {
	case aNum && bNum:
		return af < bf
	case aNum != bNum:
		return aNum
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}

func numeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
