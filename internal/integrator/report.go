package integrator

import (
	"encoding/json"
	"slices"

	"github.com/roach88/modintegrator/internal/patcherr"
)

// Status is the result of one unit.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one (strategy, target) unit.
type Outcome struct {
	Strategy string
	Target   string
	Status   Status
	Warnings []string
	Err      error
}

type outcomeJSON struct {
	Strategy string   `json:"strategy"`
	Target   string   `json:"target,omitempty"`
	Status   Status   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
	Code     string   `json:"code,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// MarshalJSON renders the error as its code and message.
func (o Outcome) MarshalJSON() ([]byte, error) {
	v := outcomeJSON{
		Strategy: o.Strategy,
		Target:   o.Target,
		Status:   o.Status,
		Warnings: o.Warnings,
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
		if code, ok := patcherr.CodeOf(o.Err); ok {
			v.Code = string(code)
		}
	}
	return json.Marshal(v)
}

// Report collects the outcomes of a run in execution order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`

	// Written lists the records stored in the output archive, each once.
	Written []string `json:"written"`

	// Baked lists the records copied into the output from the integrator
	// itself.
	Baked []string `json:"baked,omitempty"`
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) written(path string) {
	if !slices.Contains(r.Written, path) {
		r.Written = append(r.Written, path)
	}
}

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed outcomes.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether no unit failed.
func (r *Report) OK() bool {
	return r.Count(StatusFailed) == 0
}
