package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
)

// errOrphaned marks a derived record skipped because its paragraph was not stored.
var errOrphaned = errors.New("paragraph was not stored")

// Stage names the step of the pipeline a failure happened in.
type Stage string

const (
	StageParagraph   Stage = "paragraph"
	StageTag         Stage = "tag"
	StageEmbedding   Stage = "embedding"
	StageSentiment   Stage = "sentiment"
	StageVectorIndex Stage = "vector_index"
	StageAttachment  Stage = "attachment"
	StageCaption     Stage = "caption"
)

// Failure is one non-fatal write that did not happen.
// Index is the paragraph or attachment position, or -1 for entry-level work.
type Failure struct {
	Stage Stage
	Index int
	Err   error
}

func (f Failure) Error() string {
	if f.Index < 0 {
		return fmt.Sprintf("%s: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("%s %d: %v", f.Stage, f.Index, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the failure for API responses.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Stage Stage  `json:"stage"`
		Index int    `json:"index"`
		Error string `json:"error"`
	}{f.Stage, f.Index, f.Err.Error()})
}

// Report collects the non-fatal failures of one analysis run.
type Report struct {
	Failures []Failure `json:"failures"`
}

// OK reports whether every write succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins all failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *Report) add(stage Stage, index int, err error) {
	r.Failures = append(r.Failures, Failure{Stage: stage, Index: index, Err: err})
}

// addSlots folds per-index results collected by a task group.
func (r *Report) addSlots(stage Stage, errs []error) {
	for i, err := range errs {
		if err != nil {
			r.add(stage, i, err)
		}
	}
}
