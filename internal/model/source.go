package model

import "fmt"

// Path represents a file system path.
type Path string

// HierarchyPath locates one image within the Subject / Study / Series /
// Instance hierarchy. All four components are set for any accepted file.
type HierarchyPath struct {
	Subject  string
	Study    string
	Series   string
	Instance int
}

func (h HierarchyPath) String() string {
	return fmt.Sprintf("%s/%s/%s/%d", h.Subject, h.Study, h.Series, h.Instance)
}

// Instance is a HierarchyPath together with the file it was read from.
type Instance struct {
	File      Path
	Hierarchy HierarchyPath
}

// Tag names the hierarchy is read from.
const (
	TagSubject  = "PatientID"
	TagStudy    = "StudyInstanceUID"
	TagSeries   = "SeriesInstanceUID"
	TagInstance = "InstanceNumber"
)
