package adapter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/pgzip"
	m "github.com/mouse-blink/qidicom/internal/model"
)

var indexHeader = []string{"subject", "study", "series", "instance", "file"}

// ErrBadIndex is returned when an index file does not have the expected shape.
var ErrBadIndex = errors.New("malformed hierarchy index")

// IndexWriter exports and re-reads a hierarchy listing.
type IndexWriter interface {
	WriteIndex(path m.Path, instances []m.Instance) error
	ReadIndex(path m.Path) ([]m.Instance, error)
}

// GzipIndexWriter stores the hierarchy as gzip-compressed TSV.
type GzipIndexWriter struct{}

// NewGzipIndexWriter constructs a GzipIndexWriter.
func NewGzipIndexWriter() *GzipIndexWriter {
	return &GzipIndexWriter{}
}

// WriteIndex writes one row per instance after a header row.
func (w *GzipIndexWriter) WriteIndex(path m.Path, instances []m.Instance) (err error) {
	f, err := os.Create(string(path))
	if err != nil {
		return err
	}

	gz := pgzip.NewWriter(f)

	defer func() {
		var errm *multierror.Error

		errm = multierror.Append(errm, err)
		errm = multierror.Append(errm, gz.Close())
		errm = multierror.Append(errm, f.Close())

		err = errm.ErrorOrNil()
	}()

	tw := csv.NewWriter(gz)
	tw.Comma = '\t'

	if err = tw.Write(indexHeader); err != nil {
		return err
	}

	for _, inst := range instances {
		h := inst.Hierarchy

		row := []string{h.Subject, h.Study, h.Series, strconv.Itoa(h.Instance), string(inst.File)}
		if err = tw.Write(row); err != nil {
			return err
		}
	}

	tw.Flush()

	return tw.Error()
}

// ReadIndex reads a file written by WriteIndex.
func (w *GzipIndexWriter) ReadIndex(path m.Path) ([]m.Instance, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, err
	}

	defer func() { _ = gz.Close() }()

	tr := csv.NewReader(gz)
	tr.Comma = '\t'
	tr.FieldsPerRecord = len(indexHeader)

	if _, err := tr.Read(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadIndex, err)
	}

	var instances []m.Instance

	for {
		row, err := tr.Read()
		if errors.Is(err, io.EOF) {
			return instances, nil
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadIndex, err)
		}

		n, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: instance %q", ErrBadIndex, row[3])
		}

		instances = append(instances, m.Instance{
			File: m.Path(row[4]),
			Hierarchy: m.HierarchyPath{
				Subject:  row[0],
				Study:    row[1],
				Series:   row[2],
				Instance: n,
			},
		})
	}
}
