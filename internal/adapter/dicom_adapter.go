package adapter

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
	"github.com/hashicorp/go-multierror"
	m "github.com/mouse-blink/qidicom/internal/model"
)

// TagAccessor reads image files into tag views and writes them back out. It
// keeps the binary codec out of the domain layer.
type TagAccessor interface {
	// Open parses the file at path. Unparseable files yield an error wrapping
	// ErrNotDICOM.
	Open(path m.Path) (m.TagView, error)

	// Save encodes view to dest and returns the number of bytes written. The
	// write is atomic: dest either keeps its old content or holds the full
	// new file.
	Save(view m.TagView, dest m.Path) (int64, error)
}

// LocalTagAccessor is the TagAccessor backed by go-dicom-parser.
type LocalTagAccessor struct{}

// NewLocalTagAccessor constructs a LocalTagAccessor.
func NewLocalTagAccessor() *LocalTagAccessor {
	return &LocalTagAccessor{}
}

// Open parses the DICOM file at path.
func (a *LocalTagAccessor) Open(path m.Path) (m.TagView, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	ds, err := dicom.Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDICOM, path, err)
	}

	return &DicomTagView{path: path, dataSet: ds}, nil
}

// Save writes view to dest through a temp file in the same directory.
func (a *LocalTagAccessor) Save(view m.TagView, dest m.Path) (int64, error) {
	ds, err := dataSetOf(view)
	if err != nil {
		return 0, err
	}

	destPath := string(dest)

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}

	n, err := writeDataSet(tmp, ds)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		_ = os.Remove(tmp.Name())

		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}

	return n, nil
}

func writeDataSet(f *os.File, ds *dicom.DataSet) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(f)}

	var errm *multierror.Error

	errm = multierror.Append(errm, dicom.Construct(cw, ds))
	errm = multierror.Append(errm, cw.w.Flush())
	errm = multierror.Append(errm, f.Sync())
	errm = multierror.Append(errm, f.Close())

	return cw.n, errm.ErrorOrNil()
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

var _ io.Writer = (*countingWriter)(nil)

// dataSetOf returns the data set behind view. Views that did not come from
// Open are encoded into a fresh explicit VR little endian data set.
func dataSetOf(view m.TagView) (*dicom.DataSet, error) {
	if dv, ok := view.(*DicomTagView); ok {
		return dv.dataSet, nil
	}

	fresh := &DicomTagView{
		path: view.Path(),
		dataSet: dicom.NewDataSet(map[dicom.DataElementTag]interface{}{
			dicom.TransferSyntaxUIDTag: []string{dicom.ExplicitVRLittleEndianUID},
		}),
	}

	for _, name := range view.Names() {
		value, _ := view.Get(name)
		if err := fresh.Set(name, value); err != nil {
			return nil, err
		}
	}

	return fresh.dataSet, nil
}

// DicomTagView is the TagView over a parsed data set.
type DicomTagView struct {
	path    m.Path
	dataSet *dicom.DataSet
}

// Path implements model.TagView.
func (v *DicomTagView) Path() m.Path {
	return v.path
}

// Get implements model.TagView. Unknown names read as absent.
func (v *DicomTagView) Get(name string) (m.Value, bool) {
	info, err := LookupTag(name)
	if err != nil {
		return nil, false
	}

	el, ok := v.dataSet.Elements[info.Tag]
	if !ok {
		return nil, false
	}

	return decodeValue(el), true
}

// Set implements model.TagView.
func (v *DicomTagView) Set(name string, value m.Value) error {
	info, err := LookupTag(name)
	if err != nil {
		return err
	}

	if value == nil {
		delete(v.dataSet.Elements, info.Tag)

		return nil
	}

	vr := info.VR
	if existing, ok := v.dataSet.Elements[info.Tag]; ok && existing.VR != nil {
		vr = existing.VR
	}

	field, err := encodeValue(vr, value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	v.dataSet.Elements[info.Tag] = &dicom.DataElement{Tag: info.Tag, VR: vr, ValueField: field}

	return nil
}

// Names implements model.TagView.
func (v *DicomTagView) Names() []string {
	tags := v.dataSet.SortedTags()

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, KeywordFor(tag))
	}

	return names
}

//nolint:cyclop // one case per codec value shape
func decodeValue(el *dicom.DataElement) m.Value {
	switch field := el.ValueField.(type) {
	case []string:
		return decodeText(el.VR, field)
	case []uint16:
		if len(field) == 1 {
			return int64(field[0])
		}
	case []int16:
		if len(field) == 1 {
			return int64(field[0])
		}
	case []uint32:
		if len(field) == 1 {
			return int64(field[0])
		}
	case []int32:
		if len(field) == 1 {
			return int64(field[0])
		}
	case []float32:
		if len(field) == 1 {
			return float64(field[0])
		}
	case []float64:
		if len(field) == 1 {
			return field[0]
		}
	}

	return el.ValueField
}

func decodeText(vr *dicom.VR, field []string) m.Value {
	if len(field) == 0 {
		return ""
	}

	if len(field) > 1 {
		out := make([]string, len(field))
		copy(out, field)

		return out
	}

	s := field[0]

	switch vr {
	case dicom.ISVR:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	case dicom.DSVR:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}

	return s
}

//nolint:cyclop // one case per binary VR
func encodeValue(vr *dicom.VR, value m.Value) (interface{}, error) {
	switch vr {
	case dicom.USVR:
		n, err := toInt(value)

		return []uint16{uint16(n)}, err
	case dicom.SSVR:
		n, err := toInt(value)

		return []int16{int16(n)}, err
	case dicom.ULVR:
		n, err := toInt(value)

		return []uint32{uint32(n)}, err
	case dicom.SLVR:
		n, err := toInt(value)

		return []int32{int32(n)}, err
	case dicom.FLVR:
		f, err := toFloat(value)

		return []float32{float32(f)}, err
	case dicom.FDVR:
		f, err := toFloat(value)

		return []float64{f}, err
	case dicom.OBVR, dicom.OWVR, dicom.ODVR, dicom.OFVR, dicom.OLVR,
		dicom.UNVR, dicom.SQVR, dicom.ATVR:
		if isScalar(value) {
			return nil, fmt.Errorf("%w: %T for VR %s", ErrUnsupportedValue, value, vr.Name)
		}

		return value, nil
	default:
		return toText(value)
	}
}

func isScalar(value m.Value) bool {
	switch value.(type) {
	case string, []string, int, int64, float64:
		return true
	default:
		return false
	}
}

func toText(value m.Value) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)

		return out, nil
	case int:
		return []string{strconv.Itoa(v)}, nil
	case int64:
		return []string{strconv.FormatInt(v, 10)}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	default:
		return nil, fmt.Errorf("%w: %T for a text VR", ErrUnsupportedValue, value)
	}
}

func toInt(value m.Value) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrUnsupportedValue, v)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T for an integer VR", ErrUnsupportedValue, value)
	}
}

func toFloat(value m.Value) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrUnsupportedValue, v)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T for a float VR", ErrUnsupportedValue, value)
	}
}
