package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

// stubDialect implements dialect.Dialect with just enough behavior for
// Renderer, which only calls BatchSeparator.
type stubDialect struct {
	separator string
}

func (stubDialect) Name() string                                       { return "stub" }
func (stubDialect) Parse(sql string) ([]ir.SchemaObject, error)        { return nil, nil }
func (stubDialect) GenerateDDL(ops []diff.DiffOp) ([]dialect.Statement, error) { return nil, nil }
func (stubDialect) ToSQL(obj ir.SchemaObject) (string, error)          { return "", nil }
func (stubDialect) Normalize(obj ir.SchemaObject) ir.SchemaObject      { return obj }
func (stubDialect) EquivalencePolicy() diffcfg.EquivalencePolicy       { return nil }
func (stubDialect) QuoteIdent(id ir.Ident) string                      { return id.Value }
func (s stubDialect) BatchSeparator() string                           { return s.separator }
func (stubDialect) Connect(config dialect.ConnectionConfig) (dialect.DatabaseAdapter, error) {
	return nil, nil
}

func TestRenderConcatenatesSQLStatements(t *testing.T) {
	r := New(stubDialect{})
	out := r.Render([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE TABLE t (id int);"},
		dialect.SQLStatement{SQL: "CREATE INDEX idx ON t (id);"},
	})

	assert.Equal(t, "CREATE TABLE t (id int);\nCREATE INDEX idx ON t (id);\n", out)
}

func TestRenderInsertsBatchSeparatorWithTrailingNewline(t *testing.T) {
	r := New(stubDialect{separator: "GO"})
	out := r.Render([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE TABLE t (id int);"},
		dialect.BatchBoundaryStatement{},
		dialect.SQLStatement{SQL: "CREATE TABLE u (id int);"},
	})

	assert.Equal(t, "CREATE TABLE t (id int);\nGO\nCREATE TABLE u (id int);\n", out)
}

func TestRenderSkipsBatchSeparatorWhenDialectHasNone(t *testing.T) {
	r := New(stubDialect{})
	out := r.Render([]dialect.Statement{
		dialect.SQLStatement{SQL: "a;"},
		dialect.BatchBoundaryStatement{},
		dialect.SQLStatement{SQL: "b;"},
	})

	assert.Equal(t, "a;\nb;\n", out)
}

func TestRenderSkippedDiagnosticsAppendsHeaderAndLines(t *testing.T) {
	r := New(stubDialect{})
	rendered := "CREATE TABLE t (id int);\n"
	r.RenderSkippedDiagnostics(&rendered, []string{"DROP TABLE legacy", "DROP COLUMN users.ssn"})

	assert.Contains(t, rendered, "-- Skipped operations (enable_drop=false):")
	assert.Contains(t, rendered, "-- Skipped: DROP TABLE legacy")
	assert.Contains(t, rendered, "-- Skipped: DROP COLUMN users.ssn")
}

func TestRenderSkippedDiagnosticsNoopOnEmptyDiagnostics(t *testing.T) {
	r := New(stubDialect{})
	rendered := "CREATE TABLE t (id int);\n"
	before := rendered
	r.RenderSkippedDiagnostics(&rendered, nil)

	assert.Equal(t, before, rendered)
}
