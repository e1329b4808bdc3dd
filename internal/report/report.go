// Package report defines the issue and report types shared by every
// validation stage of the claim pipeline. Stages accumulate issues into a
// Report; nothing in the pipeline signals a validation finding through an
// error return.
package report

import (
	"fmt"
	"strings"
)

// Severity classifies a single issue.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Issue is a single finding from any pipeline stage.
type Issue struct {
	Severity  Severity `json:"severity"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	FieldPath string   `json:"field_path,omitempty"`
	Expected  string   `json:"expected,omitempty"`
	Actual    string   `json:"actual,omitempty"`

	// Location of the offending segment when the issue came from a check on
	// emitted EDI rather than structured input.
	SegmentID    string `json:"segment_id,omitempty"`
	SegmentIndex int    `json:"segment_index,omitempty"`
	LoopID       string `json:"loop_id,omitempty"`
}

// Report is an ordered collection of issues plus a validity flag. The zero
// value is a valid, empty report.
type Report struct {
	// Stage names the pipeline stage that produced the report, e.g.
	// "pre-submission", "compliance", "payer", "batch".
	Stage  string  `json:"stage,omitempty"`
	Issues []Issue `json:"issues"`
}

// New returns an empty report for the named stage.
func New(stage string) *Report {
	return &Report{Stage: stage}
}

// Add appends an issue in input order.
func (r *Report) Add(iss Issue) {
	r.Issues = append(r.Issues, iss)
}

// AddError is shorthand for Add with SeverityError.
func (r *Report) AddError(code, fieldPath, message string) {
	r.Add(Issue{Severity: SeverityError, Code: code, FieldPath: fieldPath, Message: message})
}

// AddWarning is shorthand for Add with SeverityWarning.
func (r *Report) AddWarning(code, fieldPath, message string) {
	r.Add(Issue{Severity: SeverityWarning, Code: code, FieldPath: fieldPath, Message: message})
}

// AddInfo is shorthand for Add with SeverityInfo.
func (r *Report) AddInfo(code, fieldPath, message string) {
	r.Add(Issue{Severity: SeverityInfo, Code: code, FieldPath: fieldPath, Message: message})
}

// IsValid reports whether the report contains no ERROR issues.
func (r *Report) IsValid() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the ERROR issues in order.
func (r *Report) Errors() []Issue {
	return r.bySeverity(SeverityError)
}

// Warnings returns the WARNING issues in order.
func (r *Report) Warnings() []Issue {
	return r.bySeverity(SeverityWarning)
}

func (r *Report) bySeverity(sev Severity) []Issue {
	var out []Issue
	for _, iss := range r.Issues {
		if iss.Severity == sev {
			out = append(out, iss)
		}
	}
	return out
}

// Merge appends every issue of other, preserving order. A nil other is a
// no-op.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// Flatten returns the report as ordered key/value rows, one map per issue,
// for structured serialization by callers that cannot consume the typed form.
func (r *Report) Flatten() []map[string]string {
	rows := make([]map[string]string, 0, len(r.Issues))
	for _, iss := range r.Issues {
		row := map[string]string{
			"severity": string(iss.Severity),
			"code":     iss.Code,
			"message":  iss.Message,
		}
		if iss.FieldPath != "" {
			row["field_path"] = iss.FieldPath
		}
		if iss.Expected != "" {
			row["expected"] = iss.Expected
		}
		if iss.Actual != "" {
			row["actual"] = iss.Actual
		}
		if iss.SegmentID != "" {
			row["segment_id"] = iss.SegmentID
			row["segment_index"] = fmt.Sprintf("%d", iss.SegmentIndex)
		}
		if iss.LoopID != "" {
			row["loop_id"] = iss.LoopID
		}
		rows = append(rows, row)
	}
	return rows
}

// String renders the report as the tabular text form used by the CLI.
func (r *Report) String() string {
	var b strings.Builder
	verdict := "PASS"
	if !r.IsValid() {
		verdict = "FAIL"
	}
	stage := r.Stage
	if stage == "" {
		stage = "report"
	}
	fmt.Fprintf(&b, "%s: %s\n", stage, verdict)

	writeGroup := func(label string, issues []Issue) {
		if len(issues) == 0 {
			return
		}
		fmt.Fprintf(&b, "%d %s:\n", len(issues), label)
		for _, iss := range issues {
			loc := iss.FieldPath
			if loc == "" && iss.SegmentID != "" {
				loc = fmt.Sprintf("%s[%d]", iss.SegmentID, iss.SegmentIndex)
			}
			if loc != "" {
				fmt.Fprintf(&b, "  [%s] %s: %s\n", iss.Code, loc, iss.Message)
			} else {
				fmt.Fprintf(&b, "  [%s] %s\n", iss.Code, iss.Message)
			}
			if iss.Expected != "" {
				fmt.Fprintf(&b, "    expected: %s\n", iss.Expected)
			}
			if iss.Actual != "" {
				fmt.Fprintf(&b, "    actual: %s\n", iss.Actual)
			}
		}
	}

	writeGroup("errors", r.Errors())
	writeGroup("warnings", r.Warnings())
	writeGroup("info", r.bySeverity(SeverityInfo))
	return strings.TrimRight(b.String(), "\n")
}
