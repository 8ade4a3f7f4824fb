package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapTagView(t *testing.T) {
	view := NewMapTagView("a.dcm", map[string]Value{
		"PatientID":      "Sarcoma002",
		"InstanceNumber": int64(6),
		"Empty":          nil,
	})

	assert.Equal(t, Path("a.dcm"), view.Path())
	assert.Equal(t, []string{"InstanceNumber", "PatientID"}, view.Names())

	got, ok := view.Get("PatientID")
	require.True(t, ok)
	assert.Equal(t, "Sarcoma002", got)

	require.NoError(t, view.Set("BodyPartExamined", "HIP"))
	got, ok = view.Get("BodyPartExamined")
	require.True(t, ok)
	assert.Equal(t, "HIP", got)

	require.NoError(t, view.Set("PatientID", nil))
	_, ok = view.Get("PatientID")
	assert.False(t, ok)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "A", NormalizeKey([]string{"A"}))
	assert.Equal(t, `A\B`, NormalizeKey([]string{"A", "B"}))
	assert.Equal(t, int64(3), NormalizeKey(3))
	assert.Equal(t, "x", NormalizeKey("x"))
	assert.Equal(t, "[1 2]", NormalizeKey([]uint16{1, 2}))
	assert.Equal(t, "NaN", NormalizeKey(math.NaN()))
}

func TestGroupMapping(t *testing.T) {
	g := NewGroupMapping(map[Value][]Path{
		int64(7):  {"b.dcm"},
		int64(6):  {"c.dcm", "a.dcm"},
		"ten":     {"d.dcm"},
		int64(99): {},
	})

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []Value{int64(6), int64(7), "ten"}, g.Keys())
	assert.Equal(t, []Path{"a.dcm", "c.dcm"}, g.Files(int64(6)))
	assert.True(t, g.Has(6))
	assert.False(t, g.Has(int64(99)))
	assert.Nil(t, g.Files("missing"))

	files := g.Files(int64(7))
	files[0] = "mutated"
	assert.Equal(t, []Path{"b.dcm"}, g.Files(int64(7)))
}

func TestGroupMapping_MergesEquivalentKeys(t *testing.T) {
	g := NewGroupMapping(map[Value][]Path{
		6:        {"b.dcm"},
		int64(6): {"a.dcm"},
	})

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []Path{"a.dcm", "b.dcm"}, g.Files(int64(6)))
}

func TestGroupMapping_NaNKeysShareOneGroup(t *testing.T) {
	g := NewGroupMapping(map[Value][]Path{
		math.NaN(): {"b.dcm"},
		math.NaN(): {"a.dcm"},
	})

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []Value{"NaN"}, g.Keys())
	assert.Equal(t, []Path{"a.dcm", "b.dcm"}, g.Files(math.NaN()))
}

func TestEditSpec_Names(t *testing.T) {
	spec := EditSpec{
		"PatientID":        Literal{Value: "X"},
		"BodyPartExamined": Literal{Value: "HIP"},
		"PatientBirthDate": Computed(func(v Value) (Value, error) { return v, nil }),
	}

	assert.Equal(t, []string{"BodyPartExamined", "PatientBirthDate", "PatientID"}, spec.Names())
}

func TestHierarchyPath_String(t *testing.T) {
	h := HierarchyPath{Subject: "S", Study: "1.2", Series: "1.2.3", Instance: 6}
	assert.Equal(t, "S/1.2/1.2.3/6", h.String())
}
