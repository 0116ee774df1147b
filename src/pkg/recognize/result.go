package recognize

import (
	"time"

	"condo-plates/src/pkg/plate"
)

// Failure reasons reported when no plate is found.
const (
	FailureNoTextDetected    = "no_text_detected"
	FailureNoValidFormat     = "no_valid_format"
	FailureImageDecode       = "image_decode_failure"
	FailureRegionUnavailable = "region_unavailable"
)

// Source prefixes for plates found by the local stages.
const (
	SourceLocal       = "local"
	SourceForced      = "forced"
	SourceUnvalidated = "unvalidated"
)

/*
Result is the outcome of one recognition. When Found is false Plate is empty
and Confidence is 0; Failure tells why.
*/
type Result struct {
	Plate      string            `json:"plate"`
	Found      bool              `json:"found"`
	Confidence float64           `json:"confidence"`
	Source     string            `json:"source,omitempty"` // provider name or "<stage>:<pass label>"
	Region     string            `json:"region"`
	Failure    string            `json:"failure,omitempty"`
	Candidates []plate.Candidate `json:"candidates,omitempty"`
	Elapsed    time.Duration     `json:"elapsed"`
}

func notFound(region, failure string, candidates []plate.Candidate) Result {
	return Result{Region: region, Failure: failure, Candidates: candidates}
}
