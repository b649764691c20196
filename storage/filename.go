package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/njcx/auditlogd/common/fmtstr"
)

// defaultStreamName is the sentinel identifying the default destination
// (spec §3). Storage.streamFor does not validate destinations: an empty
// destination passed to WriteTo is the default stream.
const defaultStreamName = ""

// generateSegmentPath builds a sortable, per-destination segment filename:
//
//	<base_filename>[-<destination>]_<timestamp>_<segment_index zero-padded 6>.log
//
// Putting the destination directly after the base filename (spec §6,
// "filename convention") means a destination's segments share a common
// prefix and sort together, distinguishable from the default stream and
// from other destinations. The timestamp segment is expanded through a
// fmtstr.TimestampFormatString rather than a hardcoded layout, so a
// deployment can configure a coarser rotation-timestamp granularity
// without touching code.
func generateSegmentPath(basePath, baseFilename, destination string, segmentIndex uint64, createdAt time.Time, ts *fmtstr.TimestampFormatString) string {
	name := baseFilename
	if destination != defaultStreamName {
		name = fmt.Sprintf("%s-%s", baseFilename, destination)
	}
	if ts == nil {
		ts = fmtstr.NewTimestampFormatString("")
	}
	filename := fmt.Sprintf("%s_%s_%06d.log", name, ts.Run(createdAt), segmentIndex)
	return filepath.Join(basePath, filename)
}
