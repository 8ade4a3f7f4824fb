// Package dicomtest writes small synthetic DICOM files for tests.
package dicomtest

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

// Tags used by the fixtures.
const (
	PatientIDTag         dicom.DataElementTag = 0x00100020
	PatientBirthDateTag  dicom.DataElementTag = 0x00100030
	BodyPartExaminedTag  dicom.DataElementTag = 0x00180015
	ProtocolNameTag      dicom.DataElementTag = 0x00181030
	StudyInstanceUIDTag  dicom.DataElementTag = 0x0020000D
	SeriesInstanceUIDTag dicom.DataElementTag = 0x0020000E
	InstanceNumberTag    dicom.DataElementTag = 0x00200013
	RowsTag              dicom.DataElementTag = 0x00280010
)

// Identifiers of the Sarcoma fixture.
const (
	SarcomaSubject = "Sarcoma002"
	SarcomaStudy   = "1.3.6.1.4.1.5962.1.2.2.20031208063649.855"
	SarcomaSeries  = "1.3.6.1.4.1.5962.1.3.2.1.20031208063649.855"
)

// PixelData is the payload written into every fixture.
var PixelData = []byte{0x11, 0x11, 0x22, 0x22, 0x33, 0x33, 0x44, 0x44}

// Image describes one fixture file. Zero-valued hierarchy fields are left out
// of the file.
type Image struct {
	PatientID      string
	StudyUID       string
	SeriesUID      string
	InstanceNumber int
	BirthDate      string
	BodyPart       string
	Protocol       string
}

// DataSet builds the data set for img.
func DataSet(img Image) *dicom.DataSet {
	ds := dicom.NewDataSet(map[dicom.DataElementTag]interface{}{
		dicom.TransferSyntaxUIDTag:       []string{dicom.ExplicitVRLittleEndianUID},
		dicom.MediaStorageSOPClassUIDTag: []string{"1.2.840.10008.5.1.4.1.1.4"},
	})

	text := func(tag dicom.DataElementTag, vr *dicom.VR, value string) {
		if value == "" {
			return
		}

		ds.Elements[tag] = &dicom.DataElement{Tag: tag, VR: vr, ValueField: []string{value}}
	}

	text(PatientIDTag, dicom.LOVR, img.PatientID)
	text(StudyInstanceUIDTag, dicom.UIVR, img.StudyUID)
	text(SeriesInstanceUIDTag, dicom.UIVR, img.SeriesUID)
	text(PatientBirthDateTag, dicom.DAVR, img.BirthDate)
	text(BodyPartExaminedTag, dicom.CSVR, img.BodyPart)
	text(ProtocolNameTag, dicom.LOVR, img.Protocol)

	if img.InstanceNumber != 0 {
		text(InstanceNumberTag, dicom.ISVR, strconv.Itoa(img.InstanceNumber))
	}

	ds.Elements[RowsTag] = &dicom.DataElement{Tag: RowsTag, VR: dicom.USVR, ValueField: []uint16{2}}
	ds.Elements[dicom.PixelDataTag] = &dicom.DataElement{
		Tag:         dicom.PixelDataTag,
		VR:          dicom.OWVR,
		ValueField:  dicom.NewBulkDataBuffer(PixelData),
		ValueLength: uint32(len(PixelData)),
	}

	return ds
}

// Encode returns the file bytes for img.
func Encode(t testing.TB, img Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := dicom.Construct(&buf, DataSet(img)); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	return buf.Bytes()
}

// Write encodes img to path, creating parent directories.
func Write(t testing.TB, path string, img Image) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, Encode(t, img), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}

// WriteGarbage writes a file that is not DICOM.
func WriteGarbage(t testing.TB, path string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte("plain text, no preamble"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}

// Sarcoma writes the two-image series used across the test suites: instances
// 6 and 7 of one Sarcoma002 series, nested the way a PACS export lays them
// out. It returns the file paths in instance order.
func Sarcoma(t testing.TB, root string) []string {
	t.Helper()

	dir := filepath.Join(root, SarcomaSubject, "CT", "series1")

	return []string{
		Write(t, filepath.Join(dir, "IM-0006.dcm"), SarcomaImage(6)),
		Write(t, filepath.Join(dir, "IM-0007.dcm"), SarcomaImage(7)),
	}
}

// SarcomaImage is instance n of the Sarcoma fixture.
func SarcomaImage(n int) Image {
	return Image{
		PatientID:      SarcomaSubject,
		StudyUID:       SarcomaStudy,
		SeriesUID:      SarcomaSeries,
		InstanceNumber: n,
		BirthDate:      "19500101",
		BodyPart:       "LEG",
	}
}
