package domain

import (
	"errors"
	"fmt"

	m "github.com/mouse-blink/qidicom/internal/model"
)

// ErrInvalidEdit is returned for EditSpec entries that are neither Literal nor
// Computed.
var ErrInvalidEdit = errors.New("invalid edit")

// Editor applies an EditSpec to tag views. It holds no per-file state, so one
// Editor serves a whole run.
type Editor struct {
	spec  m.EditSpec
	names []string
}

// NewEditor copies spec into a new Editor.
func NewEditor(spec m.EditSpec) *Editor {
	own := make(m.EditSpec, len(spec))
	for name, edit := range spec {
		own[name] = edit
	}

	return &Editor{spec: own, names: own.Names()}
}

// Edit applies every entry of the spec to view in tag-name order. The first
// failing entry stops the edit; earlier entries stay applied to view. An error
// from a Computed edit is returned as is.
func (e *Editor) Edit(view m.TagView) error {
	for _, name := range e.names {
		if err := e.apply(view, name, e.spec[name]); err != nil {
			return err
		}
	}

	return nil
}

func (e *Editor) apply(view m.TagView, name string, edit m.Edit) error {
	var value m.Value

	switch ed := edit.(type) {
	case m.Literal:
		value = ed.Value
	case m.Computed:
		if ed == nil {
			return fmt.Errorf("%w: %s has a nil computation", ErrInvalidEdit, name)
		}

		current, _ := view.Get(name)

		v, err := ed(current)
		if err != nil {
			return err
		}

		value = v
	default:
		return fmt.Errorf("%w: %s has edit of type %T", ErrInvalidEdit, name, edit)
	}

	if err := view.Set(name, value); err != nil {
		return fmt.Errorf("setting %s for %s: %w", name, view.Path(), err)
	}

	return nil
}
