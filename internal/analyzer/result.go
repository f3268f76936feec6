package analyzer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result is the shape every analyzer result extends.
type Result struct {
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Metadata map[string]any `json:"metadata"`
}

// NewResult returns an empty result stamped with a run id and time.
func (b *Base) NewResult() Result {
	return Result{
		Errors:   []string{},
		Warnings: []string{},
		Metadata: map[string]any{
			"analyzer":   b.name,
			"analysisId": uuid.NewString(),
			"analyzedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}
}

func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateResult replaces nil collections so the JSON form never holds null.
func ValidateResult(r *Result) {
	if r == nil {
		return
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
}
