package model

import "time"

// WriteRecord describes one completed pipeline write.
type WriteRecord struct {
	RunID     string
	Source    Path
	Hash      string
	Dest      Path
	Bytes     int64
	WrittenAt time.Time
}

// EditStats summarises an edit run.
type EditStats struct {
	Total   int
	Written int
	Skipped int
	Bytes   int64
}
