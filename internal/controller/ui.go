// Package controller provides output adapters for displaying hierarchies,
// groupings and edit runs.
package controller

import (
	m "github.com/mouse-blink/qidicom/internal/model"
)

// UI defines the interface for presenting workflow results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayHierarchy(instances []m.Instance) error
	DisplayGroups(tagName string, groups m.GroupMapping) error
	DisplayEditProgress(rec m.WriteRecord)
	DisplayEditSummary(stats m.EditStats, err error) error
}
