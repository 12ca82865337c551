package diagnostic_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plainprops/internal/diagnostic"
)

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	var d diagnostic.Diagnostics

	require.NoError(t, d.Err(nil))

	d.AddInfo(diagnostic.CodeMissingMember, "saved without Z", "app.Point", "Z")
	d.AddWarning(diagnostic.CodeTypeChanged, "width changed", "app.Point", "X")

	var other diagnostic.Diagnostics
	other.AddError(diagnostic.CodeUnknownMember, "no such member", "app.Point", "Zee", "Z")
	d.Merge(other)

	assert.True(t, d.HasErrors())
	assert.Len(t, d.All(), 3)
	assert.Equal(t, diagnostic.SeverityError, d.All()[0].Severity)

	assert.Equal(t,
		"[app.Point] Zee: [unknown-member] no such member (did you mean Z?)",
		d.Errors[0].String())

	base := errors.New("base")
	err := d.Err(base)
	require.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "unknown-member")
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "info", diagnostic.SeverityInfo.String())
	assert.Equal(t, "warning", diagnostic.SeverityWarning.String())
	assert.Equal(t, "error", diagnostic.SeverityError.String())
	assert.Equal(t, "unknown", diagnostic.Severity(9).String())
}

func TestDiagnostics_String(t *testing.T) {
	t.Parallel()

	var d diagnostic.Diagnostics

	d.AddInfo(diagnostic.CodeAddedMember, "member was added", "geo.Point", "Z")
	d.AddError(diagnostic.CodeUnmatchedSchema, "struct was removed", "geo.Line", "")

	assert.Equal(t,
		"error: [geo.Line]: [unmatched-schema] struct was removed\n"+
			"info: [geo.Point] Z: [added-member] member was added\n",
		d.String())
}
