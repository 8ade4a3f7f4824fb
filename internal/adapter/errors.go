package adapter

import "errors"

var (
	// ErrNotDICOM is returned by Open for files the codec cannot parse.
	ErrNotDICOM = errors.New("not a DICOM file")
	// ErrUnknownTag is returned for tag names outside the dictionary.
	ErrUnknownTag = errors.New("unknown tag")
	// ErrUnsupportedValue is returned when a value cannot be encoded for a tag's VR.
	ErrUnsupportedValue = errors.New("unsupported tag value")
)
