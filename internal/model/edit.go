// Package model defines the data structures shared by the hierarchy walker,
// the grouper and the edit pipeline.
package model

import "sort"

// Edit is one entry of an EditSpec. It is either a Literal or a Computed.
type Edit interface {
	isEdit()
}

// Literal sets a tag to a fixed value.
type Literal struct {
	Value Value
}

// Computed derives a new value from the current one. current is nil when the
// tag is absent.
type Computed func(current Value) (Value, error)

func (Literal) isEdit()  {}
func (Computed) isEdit() {}

// EditSpec maps tag names to the edit applied to them. It carries no per-file
// state and can be reused across files.
type EditSpec map[string]Edit

// Names returns the tag names of the spec in sorted order.
func (s EditSpec) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Destination tells the edit pipeline where modified files go. It is either a
// FixedDirectory or a PathMapper.
type Destination interface {
	isDestination()
}

// FixedDirectory places every output in Dir under the source basename.
type FixedDirectory struct {
	Dir Path
}

// PathMapper maps a source path to its output path.
type PathMapper func(source Path) Path

func (FixedDirectory) isDestination() {}
func (PathMapper) isDestination()     {}
