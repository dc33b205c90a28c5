package model

// Job status
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Cut quality labels. The vision model labels the whole image with one of
// clean/mixed/ragged/unknown; individual grid regions use no_chives when a
// cell contains nothing scoreable.
type CutQualityLabel string

const (
	CutQualityClean    CutQualityLabel = "clean"
	CutQualityMixed    CutQualityLabel = "mixed"
	CutQualityRagged   CutQualityLabel = "ragged"
	CutQualityUnknown  CutQualityLabel = "unknown"
	CutQualityNoChives CutQualityLabel = "no_chives"
)

// RegionIDs are the 9 fixed grid-cell identifiers, row-major.
var RegionIDs = []string{
	"r1c1", "r1c2", "r1c3",
	"r2c1", "r2c2", "r2c3",
	"r3c1", "r3c2", "r3c3",
}
