package domain

import (
	"path/filepath"
	"testing"

	"github.com/mouse-blink/qidicom/internal/adapter"
	"github.com/mouse-blink/qidicom/internal/adapter/dicomtest"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalker() *Walker {
	return NewWalker(adapter.NewLocalSourceFSAdapter(), adapter.NewLocalTagAccessor(), nil)
}

func collectHierarchy(t *testing.T, w *Walker, root string) []m.HierarchyPath {
	t.Helper()

	var paths []m.HierarchyPath

	for h, err := range w.ReadHierarchy(m.Path(root)) {
		require.NoError(t, err)

		paths = append(paths, h)
	}

	return paths
}

func TestWalker_ReadHierarchy(t *testing.T) {
	root := t.TempDir()
	dicomtest.Sarcoma(t, root)

	paths := collectHierarchy(t, newTestWalker(), root)

	assert.ElementsMatch(t, []m.HierarchyPath{
		{Subject: dicomtest.SarcomaSubject, Study: dicomtest.SarcomaStudy, Series: dicomtest.SarcomaSeries, Instance: 6},
		{Subject: dicomtest.SarcomaSubject, Study: dicomtest.SarcomaStudy, Series: dicomtest.SarcomaSeries, Instance: 7},
	}, paths)
}

func TestWalker_ReadHierarchy_SkipsFilesThatAreNotImages(t *testing.T) {
	root := t.TempDir()
	dicomtest.Sarcoma(t, root)
	dicomtest.WriteGarbage(t, filepath.Join(root, "README.txt"))
	dicomtest.WriteGarbage(t, filepath.Join(root, dicomtest.SarcomaSubject, "notes.dcm"))

	// Parses, but has no InstanceNumber.
	dicomtest.Write(t, filepath.Join(root, "partial", "a.dcm"), dicomtest.Image{
		PatientID: "P", StudyUID: "1", SeriesUID: "1.1",
	})

	assert.Len(t, collectHierarchy(t, newTestWalker(), root), 2)
}

func TestWalker_ReadHierarchy_DuplicatesAreKept(t *testing.T) {
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)
	dicomtest.Write(t, filepath.Join(root, "copy", "IM-0006.dcm"), dicomtest.SarcomaImage(6))

	paths := collectHierarchy(t, newTestWalker(), root)

	require.Len(t, paths, len(files)+1)

	sixes := 0

	for _, p := range paths {
		if p.Instance == 6 {
			sixes++
		}
	}

	assert.Equal(t, 2, sixes)
}

func TestWalker_ReadHierarchy_EmptyRoot(t *testing.T) {
	assert.Empty(t, collectHierarchy(t, newTestWalker(), t.TempDir()))
}

func TestWalker_ReadHierarchy_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")

	var errs []error

	for _, err := range newTestWalker().ReadHierarchy(m.Path(root)) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), root)
}

func TestWalker_ReadHierarchy_IsLazy(t *testing.T) {
	root := t.TempDir()
	dicomtest.Sarcoma(t, root)

	tags := &countingAccessor{TagAccessor: adapter.NewLocalTagAccessor()}
	w := NewWalker(adapter.NewLocalSourceFSAdapter(), tags, nil)

	seq := w.ReadHierarchy(m.Path(root))
	assert.Zero(t, tags.opened, "nothing is read before iteration")

	for _, err := range seq {
		require.NoError(t, err)

		break
	}

	assert.Equal(t, 1, tags.opened)
}

func TestWalker_Instances(t *testing.T) {
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)

	got := map[m.Path]int{}

	for inst, err := range newTestWalker().Instances(m.Path(root)) {
		require.NoError(t, err)

		got[inst.File] = inst.Hierarchy.Instance
	}

	assert.Equal(t, map[m.Path]int{m.Path(files[0]): 6, m.Path(files[1]): 7}, got)
}

func TestWalker_GroupBy(t *testing.T) {
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)

	t.Run("instance number", func(t *testing.T) {
		groups, err := newTestWalker().GroupBy("InstanceNumber", m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, []m.Value{int64(6), int64(7)}, groups.Keys())
		assert.Equal(t, []m.Path{m.Path(files[0])}, groups.Files(6))
		assert.Equal(t, []m.Path{m.Path(files[1])}, groups.Files(7))
	})

	t.Run("shared value", func(t *testing.T) {
		groups, err := newTestWalker().GroupBy("BodyPartExamined", m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, 1, groups.Len())
		assert.ElementsMatch(t, []m.Path{m.Path(files[0]), m.Path(files[1])}, groups.Files("LEG"))
	})

	t.Run("any dictionary keyword", func(t *testing.T) {
		dir := t.TempDir()
		knee := dicomtest.Write(t, filepath.Join(dir, "a.dcm"), dicomtest.Image{
			PatientID: "P", StudyUID: "1", SeriesUID: "1.1", InstanceNumber: 1, Protocol: "KNEE",
		})
		hip := dicomtest.Write(t, filepath.Join(dir, "b.dcm"), dicomtest.Image{
			PatientID: "P", StudyUID: "1", SeriesUID: "1.1", InstanceNumber: 2, Protocol: "HIP",
		})

		groups, err := newTestWalker().GroupBy("ProtocolName", m.Path(dir))
		require.NoError(t, err)

		assert.Equal(t, []m.Value{"HIP", "KNEE"}, groups.Keys())
		assert.Equal(t, []m.Path{m.Path(knee)}, groups.Files("KNEE"))
		assert.Equal(t, []m.Path{m.Path(hip)}, groups.Files("HIP"))
	})

	t.Run("absent tag gives no groups", func(t *testing.T) {
		groups, err := newTestWalker().GroupBy("PatientName", m.Path(root))
		require.NoError(t, err)

		assert.Zero(t, groups.Len())
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := newTestWalker().GroupBy("InstanceNumber", m.Path(filepath.Join(root, "absent")))
		assert.Error(t, err)
	})
}

func TestHierarchyOf(t *testing.T) {
	full := map[string]m.Value{
		m.TagSubject:  "P1",
		m.TagStudy:    "1.2",
		m.TagSeries:   "1.2.3",
		m.TagInstance: int64(4),
	}

	h, ok := HierarchyOf(m.NewMapTagView("a", full))
	require.True(t, ok)
	assert.Equal(t, m.HierarchyPath{Subject: "P1", Study: "1.2", Series: "1.2.3", Instance: 4}, h)

	tests := []struct {
		name   string
		change map[string]m.Value
		ok     bool
	}{
		{"instance as text", map[string]m.Value{m.TagInstance: " 12 "}, true},
		{"instance as whole float", map[string]m.Value{m.TagInstance: 3.0}, true},
		{"instance as fraction", map[string]m.Value{m.TagInstance: 3.5}, false},
		{"instance not a number", map[string]m.Value{m.TagInstance: "x"}, false},
		{"missing subject", map[string]m.Value{m.TagSubject: nil}, false},
		{"blank study", map[string]m.Value{m.TagStudy: "  "}, false},
		{"multi-valued series", map[string]m.Value{m.TagSeries: []string{"1", "2"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make(map[string]m.Value, len(full))
			for k, v := range full {
				values[k] = v
			}

			view := m.NewMapTagView("a", values)
			for k, v := range tt.change {
				require.NoError(t, view.Set(k, v))
			}

			_, ok := HierarchyOf(view)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

// countingAccessor counts Open calls.
type countingAccessor struct {
	adapter.TagAccessor
	opened int
}

func (c *countingAccessor) Open(path m.Path) (m.TagView, error) {
	c.opened++

	return c.TagAccessor.Open(path)
}
