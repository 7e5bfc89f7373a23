package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

func tableObject(name string, columns ...ir.Column) ir.SchemaObject {
	t := ir.NewTable(name)
	t.Columns = columns
	return ir.TableObject{Table: t}
}

func column(name string) ir.Column {
	return ir.Column{Name: ir.NewIdent(name), DataType: ir.IntegerType{}}
}

func cfg(enableDrop bool) diffcfg.DiffConfig {
	return diffcfg.NewDiffConfig(enableDrop, nil, nil)
}

func TestDiffCreatesNewTable(t *testing.T) {
	desired := []ir.SchemaObject{tableObject("users", column("id"))}
	current := []ir.SchemaObject{}

	ops, err := NewDiffEngine().Diff(desired, current, cfg(true))
	require.NoError(t, err)
	require.Len(t, ops, 1)

	create, ok := ops[0].(CreateTableOp)
	require.True(t, ok)
	assert.Equal(t, "users", create.Table.Name.Name.Value)
}

func TestDiffProducesNoOpsWhenSchemasMatch(t *testing.T) {
	objects := []ir.SchemaObject{tableObject("users", column("id"))}

	ops, err := NewDiffEngine().Diff(objects, objects, cfg(true))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDiffSuppressesDropByDefault(t *testing.T) {
	desired := []ir.SchemaObject{}
	current := []ir.SchemaObject{tableObject("legacy", column("id"))}

	ops, err := NewDiffEngine().Diff(desired, current, cfg(false))
	require.NoError(t, err)
	assert.Empty(t, ops, "dropping a table should be suppressed when enable_drop is off")
}

func TestDiffEmitsDropWhenEnableDropIsOn(t *testing.T) {
	desired := []ir.SchemaObject{}
	current := []ir.SchemaObject{tableObject("legacy", column("id"))}

	ops, err := NewDiffEngine().Diff(desired, current, cfg(true))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	drop, ok := ops[0].(DropTableOp)
	require.True(t, ok)
	assert.Equal(t, "legacy", drop.Name.Name.Value)
}

func TestDiffAddsColumnToExistingTable(t *testing.T) {
	desired := []ir.SchemaObject{tableObject("users", column("id"), column("email"))}
	current := []ir.SchemaObject{tableObject("users", column("id"))}

	ops, err := NewDiffEngine().Diff(desired, current, cfg(true))
	require.NoError(t, err)
	require.Len(t, ops, 1)

	add, ok := ops[0].(AddColumnOp)
	require.True(t, ok)
	assert.Equal(t, "email", add.Column.Name.Value)
	assert.Equal(t, "users", add.Table.Name.Value)
}

func TestDiffWithDiagnosticsReportsSuppressedDrop(t *testing.T) {
	desired := []ir.SchemaObject{}
	current := []ir.SchemaObject{tableObject("legacy", column("id"))}

	outcome, err := NewDiffEngine().DiffWithDiagnostics(desired, current, cfg(false))
	require.NoError(t, err)
	assert.Empty(t, outcome.Ops)
	assert.False(t, outcome.Diagnostics.IsEmpty(), "suppressed drop should surface as a diagnostic")
}

func TestDiffWithDiagnosticsHasNoDiagnosticsWhenEnableDropIsOn(t *testing.T) {
	desired := []ir.SchemaObject{}
	current := []ir.SchemaObject{tableObject("legacy", column("id"))}

	outcome, err := NewDiffEngine().DiffWithDiagnostics(desired, current, cfg(true))
	require.NoError(t, err)
	require.Len(t, outcome.Ops, 1)
	assert.True(t, outcome.Diagnostics.IsEmpty())
}
