package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
	"github.com/mouse-blink/qidicom/internal/adapter/dicomtest"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTag(t *testing.T) {
	t.Run("keyword", func(t *testing.T) {
		info, err := LookupTag("PatientID")
		require.NoError(t, err)
		assert.Equal(t, dicom.DataElementTag(0x00100020), info.Tag)
		assert.Equal(t, dicom.LOVR, info.VR)
	})

	t.Run("keywords across the standard dictionary", func(t *testing.T) {
		tests := []struct {
			keyword string
			tag     dicom.DataElementTag
			vr      *dicom.VR
		}{
			{"ProtocolName", 0x00181030, dicom.LOVR},
			{"AcquisitionDate", 0x00080022, dicom.DAVR},
			{"OperatorsName", 0x00081070, dicom.PNVR},
			{"InstitutionAddress", 0x00080081, dicom.STVR},
			{"EchoTime", 0x00180081, dicom.DSVR},
		}

		for _, tt := range tests {
			info, err := LookupTag(tt.keyword)
			require.NoError(t, err, tt.keyword)
			assert.Equal(t, tt.tag, info.Tag, tt.keyword)
			assert.Equal(t, tt.vr, info.VR, tt.keyword)
			assert.Equal(t, tt.keyword, KeywordFor(info.Tag))
		}
	})

	t.Run("legacy alias", func(t *testing.T) {
		info, err := LookupTag("PatientsBirthDate")
		require.NoError(t, err)
		assert.Equal(t, "PatientBirthDate", info.Keyword)
	})

	t.Run("group element literal", func(t *testing.T) {
		info, err := LookupTag("(0020,0013)")
		require.NoError(t, err)
		assert.Equal(t, "InstanceNumber", info.Keyword)

		info, err = LookupTag("00200013")
		require.NoError(t, err)
		assert.Equal(t, "InstanceNumber", info.Keyword)
	})

	t.Run("literal outside the dictionary", func(t *testing.T) {
		info, err := LookupTag("(0009,1001)")
		require.NoError(t, err)
		assert.Equal(t, "(0009,1001)", info.Keyword)
		assert.Equal(t, "(0009,1001)", KeywordFor(info.Tag))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := LookupTag("NoSuchTag")
		assert.ErrorIs(t, err, ErrUnknownTag)

		_, err = LookupTag("(zz,1)")
		assert.ErrorIs(t, err, ErrUnknownTag)
	})
}

func TestLocalTagAccessor_Open(t *testing.T) {
	accessor := NewLocalTagAccessor()
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)

	view, err := accessor.Open(m.Path(files[0]))
	require.NoError(t, err)

	assert.Equal(t, m.Path(files[0]), view.Path())

	subject, ok := view.Get("PatientID")
	require.True(t, ok)
	assert.Equal(t, dicomtest.SarcomaSubject, subject)

	instance, ok := view.Get("InstanceNumber")
	require.True(t, ok)
	assert.Equal(t, int64(6), instance)

	rows, ok := view.Get("Rows")
	require.True(t, ok)
	assert.Equal(t, int64(2), rows)

	_, ok = view.Get("PatientName")
	assert.False(t, ok)

	assert.Contains(t, view.Names(), "SeriesInstanceUID")
	assert.Contains(t, view.Names(), "PixelData")
}

func TestLocalTagAccessor_Open_NotDICOM(t *testing.T) {
	accessor := NewLocalTagAccessor()
	path := dicomtest.WriteGarbage(t, filepath.Join(t.TempDir(), "notes.txt"))

	_, err := accessor.Open(m.Path(path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDICOM))
}

func TestLocalTagAccessor_Open_Missing(t *testing.T) {
	accessor := NewLocalTagAccessor()

	_, err := accessor.Open(m.Path(filepath.Join(t.TempDir(), "absent.dcm")))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalTagAccessor_SaveRoundTrip(t *testing.T) {
	accessor := NewLocalTagAccessor()
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)

	view, err := accessor.Open(m.Path(files[1]))
	require.NoError(t, err)

	require.NoError(t, view.Set("PatientID", "ANON-1"))
	require.NoError(t, view.Set("BodyPartExamined", "HIP"))
	require.NoError(t, view.Set("PatientsBirthDate", nil))
	require.NoError(t, view.Set("SeriesNumber", int64(3)))

	out := filepath.Join(t.TempDir(), "out.dcm")
	n, err := accessor.Save(view, m.Path(out))
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), n)

	reread, err := accessor.Open(m.Path(out))
	require.NoError(t, err)

	got, _ := reread.Get("PatientID")
	assert.Equal(t, "ANON-1", got)

	got, _ = reread.Get("BodyPartExamined")
	assert.Equal(t, "HIP", got)

	got, _ = reread.Get("SeriesNumber")
	assert.Equal(t, int64(3), got)

	_, ok := reread.Get("PatientBirthDate")
	assert.False(t, ok)

	got, _ = reread.Get("InstanceNumber")
	assert.Equal(t, int64(7), got)

	_, ok = reread.Get("PixelData")
	assert.True(t, ok)

	original, err := accessor.Open(m.Path(files[1]))
	require.NoError(t, err)

	got, _ = original.Get("PatientID")
	assert.Equal(t, dicomtest.SarcomaSubject, got, "source must be untouched")
}

func TestLocalTagAccessor_EditsTagsBeyondTheHierarchy(t *testing.T) {
	accessor := NewLocalTagAccessor()
	src := dicomtest.Write(t, filepath.Join(t.TempDir(), "a.dcm"), dicomtest.Image{
		PatientID: "P", StudyUID: "1", SeriesUID: "1.1", InstanceNumber: 1, Protocol: "KNEE ROUTINE",
	})

	view, err := accessor.Open(m.Path(src))
	require.NoError(t, err)

	got, ok := view.Get("ProtocolName")
	require.True(t, ok)
	assert.Equal(t, "KNEE ROUTINE", got)
	assert.Contains(t, view.Names(), "ProtocolName")

	require.NoError(t, view.Set("ProtocolName", "REDACTED"))
	require.NoError(t, view.Set("OperatorsName", "Doe^Jane"))

	out := filepath.Join(t.TempDir(), "out.dcm")
	_, err = accessor.Save(view, m.Path(out))
	require.NoError(t, err)

	reread, err := accessor.Open(m.Path(out))
	require.NoError(t, err)

	got, _ = reread.Get("ProtocolName")
	assert.Equal(t, "REDACTED", got)

	got, _ = reread.Get("(0008,1070)")
	assert.Equal(t, "Doe^Jane", got)
}

func TestLocalTagAccessor_Save_MissingDirectory(t *testing.T) {
	accessor := NewLocalTagAccessor()
	root := t.TempDir()
	files := dicomtest.Sarcoma(t, root)

	view, err := accessor.Open(m.Path(files[0]))
	require.NoError(t, err)

	_, err = accessor.Save(view, m.Path(filepath.Join(root, "missing", "out.dcm")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalTagAccessor_Save_MapTagView(t *testing.T) {
	accessor := NewLocalTagAccessor()
	out := filepath.Join(t.TempDir(), "mem.dcm")

	view := m.NewMapTagView("mem", map[string]m.Value{
		"PatientID":         "P1",
		"StudyInstanceUID":  "1.2",
		"SeriesInstanceUID": "1.2.3",
		"InstanceNumber":    int64(4),
	})

	_, err := accessor.Save(view, m.Path(out))
	require.NoError(t, err)

	reread, err := accessor.Open(m.Path(out))
	require.NoError(t, err)

	got, _ := reread.Get("InstanceNumber")
	assert.Equal(t, int64(4), got)
}

func TestDicomTagView_Set_Errors(t *testing.T) {
	accessor := NewLocalTagAccessor()
	files := dicomtest.Sarcoma(t, t.TempDir())

	view, err := accessor.Open(m.Path(files[0]))
	require.NoError(t, err)

	assert.ErrorIs(t, view.Set("NotARealTag", "x"), ErrUnknownTag)
	assert.ErrorIs(t, view.Set("Rows", "many"), ErrUnsupportedValue)
	assert.ErrorIs(t, view.Set("PixelData", "text"), ErrUnsupportedValue)
	assert.ErrorIs(t, view.Set("PatientID", struct{}{}), ErrUnsupportedValue)
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name string
		el   *dicom.DataElement
		want m.Value
	}{
		{"single text", &dicom.DataElement{VR: dicom.LOVR, ValueField: []string{"abc"}}, "abc"},
		{"multi text", &dicom.DataElement{VR: dicom.CSVR, ValueField: []string{"A", "B"}}, []string{"A", "B"}},
		{"empty text", &dicom.DataElement{VR: dicom.LOVR, ValueField: []string{}}, ""},
		{"integer string", &dicom.DataElement{VR: dicom.ISVR, ValueField: []string{" 12"}}, int64(12)},
		{"bad integer string", &dicom.DataElement{VR: dicom.ISVR, ValueField: []string{"x"}}, "x"},
		{"decimal string", &dicom.DataElement{VR: dicom.DSVR, ValueField: []string{"1.5"}}, 1.5},
		{"decimal string NaN stays text", &dicom.DataElement{VR: dicom.DSVR, ValueField: []string{"NaN"}}, "NaN"},
		{"decimal string infinity stays text", &dicom.DataElement{VR: dicom.DSVR, ValueField: []string{"-Inf"}}, "-Inf"},
		{"unsigned short", &dicom.DataElement{VR: dicom.USVR, ValueField: []uint16{512}}, int64(512)},
		{"float", &dicom.DataElement{VR: dicom.FDVR, ValueField: []float64{2.25}}, 2.25},
		{"multi short stays raw", &dicom.DataElement{VR: dicom.USVR, ValueField: []uint16{1, 2}}, []uint16{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeValue(tt.el))
		})
	}
}
