package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemadrift/schemadrift/ir"
)

func TestExtractStripsDirectiveKeepsComment(t *testing.T) {
	sql := "CREATE TABLE users ( -- @renamed from=accounts\n  id int\n);\n"
	cleaned, annotations, err := Extract(sql)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, 1, annotations[0].Line)
	assert.Equal(t, "accounts", annotations[0].From.Value)
	assert.False(t, annotations[0].DeprecatedAlias)
	assert.Contains(t, cleaned, "CREATE TABLE users ( --")
	assert.NotContains(t, cleaned, "@renamed")
}

func TestExtractDeprecatedAliasStillRecognized(t *testing.T) {
	sql := "-- @rename from=old_name\nCREATE TABLE users (id int);\n"
	_, annotations, err := Extract(sql)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.True(t, annotations[0].DeprecatedAlias)
	assert.Equal(t, "old_name", annotations[0].From.Value)
}

func TestExtractQuotedIdentWithEscapedQuote(t *testing.T) {
	sql := "-- @renamed from=\"we\"\"ird\"\nCREATE TABLE t (id int);\n"
	_, annotations, err := Extract(sql)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, `we"ird`, annotations[0].From.Value)
	assert.True(t, annotations[0].From.Quoted)
}

func TestExtractNoAnnotationLeavesSQLUnchanged(t *testing.T) {
	sql := "CREATE TABLE users (id int); -- just a comment\n"
	cleaned, annotations, err := Extract(sql)
	require.NoError(t, err)
	assert.Empty(t, annotations)
	assert.Equal(t, sql, cleaned)
}

func TestBuildAttachmentsLocatesTableAndColumnLines(t *testing.T) {
	sql := "CREATE TABLE users (\n" +
		"  id int,\n" +
		"  name text\n" +
		");\n"
	attachments := BuildAttachments(sql)

	var tableLine, idLine, nameLine int
	for _, a := range attachments {
		switch {
		case a.Target.Kind == TargetTable:
			tableLine = a.Line
		case a.Target.Kind == TargetTableColumn && a.Target.Column.Value == "id":
			idLine = a.Line
		case a.Target.Kind == TargetTableColumn && a.Target.Column.Value == "name":
			nameLine = a.Line
		}
	}
	assert.Equal(t, 1, tableLine)
	assert.Equal(t, 2, idLine)
	assert.Equal(t, 3, nameLine)
}

func TestAttachSetsRenamedFromOnTable(t *testing.T) {
	sql := "CREATE TABLE users ( -- @renamed from=accounts\n  id int\n);\n"
	cleaned, annotations, err := Extract(sql)
	require.NoError(t, err)
	require.Len(t, annotations, 1)

	objects := []ir.SchemaObject{
		ir.TableObject{Table: ir.NewTable("users")},
	}
	attachments := BuildAttachments(cleaned)
	require.NoError(t, Attach(objects, annotations, attachments))

	table := objects[0].(ir.TableObject).Table
	require.NotNil(t, table.RenamedFrom)
	assert.Equal(t, "accounts", table.RenamedFrom.Value)
}

func TestAttachSetsRenamedFromOnColumn(t *testing.T) {
	sql := "CREATE TABLE users (\n" +
		"  id int,\n" +
		"  full_name text -- @renamed from=name\n" +
		");\n"
	cleaned, annotations, err := Extract(sql)
	require.NoError(t, err)
	require.Len(t, annotations, 1)

	table := ir.NewTable("users")
	table.Columns = []ir.Column{
		{Name: ir.NewIdent("id")},
		{Name: ir.NewIdent("full_name")},
	}
	objects := []ir.SchemaObject{ir.TableObject{Table: table}}

	attachments := BuildAttachments(cleaned)
	require.NoError(t, Attach(objects, annotations, attachments))

	got := objects[0].(ir.TableObject).Table
	require.NotNil(t, got.Columns[1].RenamedFrom)
	assert.Equal(t, "name", got.Columns[1].RenamedFrom.Value)
	assert.Nil(t, got.Columns[0].RenamedFrom)
}

func TestAttachOrphanAnnotationErrors(t *testing.T) {
	sql := "CREATE TABLE users ( -- @renamed from=accounts\n  id int\n);\n"
	cleaned, annotations, err := Extract(sql)
	require.NoError(t, err)

	objects := []ir.SchemaObject{
		ir.TableObject{Table: ir.NewTable("other_table")},
	}
	attachments := BuildAttachments(cleaned)
	err = Attach(objects, annotations, attachments)
	assert.Error(t, err)
}
