package domain

import (
	"path/filepath"
	"testing"

	"github.com/mouse-blink/qidicom/internal/adapter"
	"github.com/mouse-blink/qidicom/internal/adapter/dicomtest"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGrouper_Group(t *testing.T) {
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)
	garbage := dicomtest.WriteGarbage(t, filepath.Join(root, "x.dcm"))
	other := dicomtest.Write(t, filepath.Join(root, "other.dcm"), dicomtest.Image{
		PatientID: "P2", StudyUID: "9", SeriesUID: "9.1", InstanceNumber: 7, BodyPart: "HIP",
	})

	g := NewGrouper(adapter.NewLocalTagAccessor(), nil)

	paths := []m.Path{m.Path(files[0]), m.Path(files[1]), m.Path(garbage), m.Path(other)}

	t.Run("instance number", func(t *testing.T) {
		groups := g.Group("InstanceNumber", paths)

		assert.Equal(t, []m.Value{int64(6), int64(7)}, groups.Keys())
		assert.Equal(t, []m.Path{m.Path(files[0])}, groups.Files(6))
		assert.ElementsMatch(t, []m.Path{m.Path(files[1]), m.Path(other)}, groups.Files(7))
	})

	t.Run("union is the files carrying the tag", func(t *testing.T) {
		groups := g.Group("BodyPartExamined", paths)

		var union []m.Path
		for _, key := range groups.Keys() {
			union = append(union, groups.Files(key)...)
		}

		assert.ElementsMatch(t, []m.Path{m.Path(files[0]), m.Path(files[1]), m.Path(other)}, union)
		assert.True(t, groups.Has("HIP"))
		assert.True(t, groups.Has("LEG"))
	})

	t.Run("no files", func(t *testing.T) {
		assert.Zero(t, g.Group("InstanceNumber", nil).Len())
	})

	t.Run("tag given by group and element", func(t *testing.T) {
		groups := g.Group("(0020,0013)", paths)

		assert.Equal(t, 2, groups.Len())
	})
}
