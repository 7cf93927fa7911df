// Package qc runs the quality-control checks offered before an entry is
// exported.
package qc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/go-playground/validator/v10"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

type Issue struct {
	Severity Severity `json:"-"`
	Level    string   `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// OK reports whether the entry has no error-level issues.
func (r Report) OK() bool {
	for _, is := range r.Issues {
		if is.Severity == Error {
			return false
		}
	}
	return true
}

// String renders one bullet per issue.
func (r Report) String() string {
	if len(r.Issues) == 0 {
		return "✓ All basic QC checks passed."
	}
	lines := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		lines[i] = "• " + is.Message
	}
	return strings.Join(lines, "\n")
}

func (r *Report) add(sev Severity, field, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		Level:    sev.String(),
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

var validate = validator.New()

var requiredMessages = map[string]string{
	"Entry.ID":               "Entry ID is empty.",
	"Entry.Language.Name":    "Language name is empty.",
	"Entry.Language.Code":    "Language code is empty.",
	"Entry.RecordedOn":       "Date is missing.",
	"Entry.Transcript.Plain": "Transcript is empty.",
}

// Check validates e against the struct rules on models.Entry and against
// cat. A nil catalog skips the catalog checks.
func Check(e models.Entry, cat *catalog.Catalog) Report {
	var r Report

	trimmed := e
	trimmed.ID = strings.TrimSpace(e.ID)
	trimmed.RecordedOn = strings.TrimSpace(e.RecordedOn)
	trimmed.Language.Name = strings.TrimSpace(e.Language.Name)
	trimmed.Language.Code = strings.TrimSpace(e.Language.Code)
	trimmed.Transcript.Plain = strings.TrimSpace(e.Transcript.Plain)

	if err := validate.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			r.add(Error, "", "Entry could not be validated: %v", err)
			return r
		}
		for _, fe := range verrs {
			msg, ok := requiredMessages[fe.StructNamespace()]
			if !ok {
				msg = fmt.Sprintf("%s failed the %q rule.", fe.StructNamespace(), fe.Tag())
			}
			r.add(Error, fe.StructNamespace(), "%s", msg)
		}
	}

	if trimmed.RecordedOn != "" {
		if err := validate.Var(trimmed.RecordedOn, "datetime=2006-01-02"); err != nil {
			r.add(Error, "Entry.RecordedOn", "Date %q is not in YYYY-MM-DD form.", trimmed.RecordedOn)
		}
	}
	if trimmed.Language.Code != "" {
		if err := validate.Var(trimmed.Language.Code, "bcp47_language_tag"); err != nil {
			r.add(Warning, "Entry.Language.Code", "Language code %q is not a valid language tag.", trimmed.Language.Code)
		}
	}

	if len(e.MarkersUsed) == 0 {
		r.add(Warning, "Entry.MarkersUsed", "No markers tagged in the transcript.")
	}

	if cat == nil {
		return r
	}

	if e.Consent != "" && !cat.HasConsentLevel(e.Consent) {
		r.add(Error, "Entry.Consent", "Consent level %q is not one of: %s.", e.Consent, strings.Join(cat.ConsentLevels(), ", "))
	}

	for _, id := range cat.UnknownMarkers(e.MarkersUsed) {
		r.add(Warning, "Entry.MarkersUsed", "Unknown marker %s.", id)
	}

	if e.ProfileID != "" {
		p, ok := cat.Profile(e.ProfileID)
		if !ok {
			r.add(Warning, "Entry.ProfileID", "Unknown profile %s.", e.ProfileID)
			return r
		}
		var missing []string
		for _, id := range p.Markers {
			if !contains(e.MarkersUsed, id) {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			r.add(Info, "Entry.ProfileID", "Profile %s markers not yet tagged: %s.", p.ID, strings.Join(missing, ", "))
		}
	}

	return r
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
