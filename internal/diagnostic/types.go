package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes reported by schema translation and batch comparison.
const (
	CodeUnmatchedSchema = "unmatched-schema"
	CodeUnmatchedEnum   = "unmatched-enum"
	CodeUnknownMember   = "unknown-member"
	CodeMissingMember   = "missing-member"
	CodeTypeChanged     = "type-changed"
	CodeSuperChanged    = "super-changed"
	CodeAddedSchema     = "added-schema"
	CodeAddedMember     = "added-member"
)

// Diagnostics holds all diagnostic information from a translation.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	// Code is a unique identifier for this kind of diagnostic.
	Code    string
	Message string
	// Schema is the typename the diagnostic relates to (if any).
	Schema string
	// Member is the member name the diagnostic relates to (if any).
	Member string
	// Suggestions are close names found in the running program.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (d *Diagnostics) add(sev Severity, code, message, schema, member string, suggestions []string) {
	diag := Diagnostic{
		Severity:    sev,
		Code:        code,
		Message:     message,
		Schema:      schema,
		Member:      member,
		Suggestions: suggestions,
	}

	switch sev {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, schema, member string, suggestions ...string) {
	d.add(SeverityError, code, message, schema, member, suggestions)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, schema, member string, suggestions ...string) {
	d.add(SeverityWarning, code, message, schema, member, suggestions)
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, schema, member string) {
	d.add(SeverityInfo, code, message, schema, member, nil)
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// All returns errors, then warnings, then infos.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)

	return append(all, d.Infos...)
}

// Err returns a combined error wrapping base, or nil if there are no errors.
func (d *Diagnostics) Err(base error) error {
	if !d.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	if base == nil {
		return errors.New(strings.Join(parts, "; "))
	}

	return fmt.Errorf("%w: %s", base, strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Schema != "" {
		prefix = append(prefix, "["+d.Schema+"]")
	}

	if d.Member != "" {
		prefix = append(prefix, d.Member)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

// String formats every diagnostic, one per line, most severe first.
func (d *Diagnostics) String() string {
	var sb strings.Builder

	for _, diag := range d.All() {
		fmt.Fprintf(&sb, "%s: %s\n", diag.Severity, diag)
	}

	return sb.String()
}
