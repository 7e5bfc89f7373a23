// Package renderer turns a Statement sequence into the SQL text a caller
// sees: dry-run previews with "-- Skipped: ..." lines documenting
// what enable_drop=false held back, and the dialect's batch separator
// (T-SQL's "GO") between statements that need one.
package renderer

import "github.com/schemadrift/schemadrift/dialect"

const skippedDiagnosticsHeader = "-- Skipped operations (enable_drop=false):"

// Renderer formats Statement values for display, using the owning dialect
// only to ask for its batch separator.
type Renderer struct {
	dialect dialect.Dialect
}

func New(d dialect.Dialect) Renderer {
	return Renderer{dialect: d}
}

// Render concatenates every statement's SQL text, one per line, with the
// dialect's batch separator at each batch boundary. Skipped-operation
// diagnostics are added separately by RenderSkippedDiagnostics.
func (r Renderer) Render(statements []dialect.Statement) string {
	var rendered string
	for _, statement := range statements {
		switch stmt := statement.(type) {
		case dialect.SQLStatement:
			rendered += stmt.SQL
			rendered += "\n"
		case dialect.BatchBoundaryStatement:
			rendered += r.batchSeparator()
		default:
			panic("renderer: unreachable Statement variant")
		}
	}
	return rendered
}

func (r Renderer) batchSeparator() string {
	separator := r.dialect.BatchSeparator()
	if separator == "" {
		return ""
	}
	if len(separator) > 0 && separator[len(separator)-1] != '\n' {
		return separator + "\n"
	}
	return separator
}

// RenderSkippedDiagnostics appends a header and one "-- Skipped: <tag>"
// line per suppressed operation onto rendered, or does nothing if there
// were none.
func (r Renderer) RenderSkippedDiagnostics(rendered *string, diagnostics []string) {
	if len(diagnostics) == 0 {
		return
	}

	*rendered += skippedDiagnosticsHeader
	*rendered += "\n"
	for _, message := range diagnostics {
		*rendered += "-- Skipped: "
		*rendered += message
		*rendered += "\n"
	}
	*rendered += "\n"
}
