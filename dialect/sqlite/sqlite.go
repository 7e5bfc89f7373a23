// Package sqlite implements the dialect.Dialect contract against SQLite.
// Parsing reuses the dialect/ddl recursive-descent core; introspection
// reads sqlite_master directly (SQLite's own catalog already stores each
// object's original CREATE statement verbatim); and DDL generation batches
// column/constraint changes SQLite's ALTER TABLE can't express directly
// into a create-shadow-copy-swap rebuild.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/dialect/ddl"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

const shadowTablePrefix = "__schema_rebuild_"

type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string           { return "sqlite" }
func (Dialect) BatchSeparator() string { return "" }

func (Dialect) EquivalencePolicy() diffcfg.EquivalencePolicy {
	return diffcfg.DefaultEquivalencePolicy{}
}

func (Dialect) QuoteIdent(id ir.Ident) string {
	return `"` + strings.ReplaceAll(id.Value, `"`, `""`) + `"`
}

func (d Dialect) Normalize(obj ir.SchemaObject) ir.SchemaObject { return obj }

func (d Dialect) Parse(sql string) ([]ir.SchemaObject, error) {
	return ddl.ParseStatements(sql, typeMapper)
}

func (d Dialect) ToSQL(obj ir.SchemaObject) (string, error) {
	switch v := obj.(type) {
	case ir.TableObject:
		return renderCreateTable(v.Table, d) + ";\n", nil
	case ir.ViewObject:
		return fmt.Sprintf("CREATE VIEW %s AS %s;\n", d.QuoteIdent(v.View.Name.Name), v.View.Query), nil
	case ir.IndexObject:
		return renderCreateIndex(v.Index, d) + ";\n", nil
	default:
		return "", fmt.Errorf("sqlite: cannot render %T to SQL", obj)
	}
}

func (Dialect) Connect(config dialect.ConnectionConfig) (dialect.DatabaseAdapter, error) {
	path := config.Database
	if config.Socket != nil {
		path = *config.Socket
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Adapter{db: db}, nil
}

func typeMapper(name string, args []int) ir.DataType {
	switch name {
	case "integer", "int":
		return ir.IntegerType{}
	case "bigint":
		return ir.BigIntType{}
	case "real", "float", "double":
		return ir.DoublePrecisionType{}
	case "text", "varchar", "char", "clob":
		return ir.TextType{}
	case "blob":
		return ir.BlobType{}
	case "boolean":
		return ir.BooleanType{}
	case "date", "datetime", "timestamp":
		return ir.TimestampType{}
	case "numeric", "decimal":
		return ir.NumericType{}
	default:
		return ir.CustomType{Name: name}
	}
}

func renderDataType(t ir.DataType) string {
	switch v := t.(type) {
	case ir.BooleanType:
		return "boolean"
	case ir.SmallIntType, ir.IntegerType:
		return "integer"
	case ir.BigIntType:
		return "bigint"
	case ir.RealType, ir.DoublePrecisionType:
		return "real"
	case ir.TextType, ir.VarcharType, ir.CharType, ir.JSONType, ir.JSONBType, ir.UUIDType:
		return "text"
	case ir.BlobType:
		return "blob"
	case ir.DateType, ir.TimeType, ir.TimestampType:
		return "text"
	case ir.NumericType:
		return "numeric"
	case ir.ArrayType:
		return renderDataType(v.Elem)
	case ir.CustomType:
		return v.Name
	default:
		panic("sqlite: unreachable DataType variant")
	}
}

func renderCreateTable(table ir.Table, d Dialect) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", d.QuoteIdent(table.Name.Name))
	writeColumnList(&sb, table, d)
	sb.WriteString("\n)")
	return sb.String()
}

func writeColumnList(sb *strings.Builder, table ir.Table, d Dialect) {
	for i, column := range table.Columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(sb, "  %s %s", d.QuoteIdent(column.Name), renderDataType(column.DataType))
		if column.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if column.Default != nil {
			fmt.Fprintf(sb, " DEFAULT %s", ddl.RenderExpr(column.Default))
		}
	}
	if table.PrimaryKey != nil {
		sb.WriteString(",\n  PRIMARY KEY (")
		for i, c := range table.PrimaryKey.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.QuoteIdent(c))
		}
		sb.WriteString(")")
	}
	for _, fk := range table.ForeignKeys {
		sb.WriteString(",\n  FOREIGN KEY (")
		for i, c := range fk.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.QuoteIdent(c))
		}
		fmt.Fprintf(sb, ") REFERENCES %s", d.QuoteIdent(fk.ReferencedTable.Name))
	}
}

func renderCreateIndex(index ir.IndexDef, d Dialect) string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if index.Unique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if index.Name != nil {
		sb.WriteString(d.QuoteIdent(*index.Name))
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "ON %s (", d.QuoteIdent(index.Owner.Name.Name))
	for i, c := range index.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ddl.RenderExpr(c.Expr))
	}
	sb.WriteString(")")
	return sb.String()
}

// GenerateDDL batches consecutive ops that touch the same table and that
// SQLite's ALTER TABLE can't express (column type/constraint changes,
// foreign keys, checks, primary key changes) into a rebuild plan; anything
// else (CreateTable, DropTable, RenameTable, AddColumn, index/view ops)
// renders directly.
func (d Dialect) GenerateDDL(ops []diff.DiffOp) ([]dialect.Statement, error) {
	var statements []dialect.Statement
	index := 0
	for index < len(ops) {
		if table, ok := rebuildTarget(ops[index]); ok {
			start := index
			index++
			for index < len(ops) {
				next, ok := rebuildTarget(ops[index])
				if !ok || !qualifiedNameEqual(next, table) {
					break
				}
				index++
			}
			plan, err := d.buildRebuildPlan(table, ops[start:index])
			if err != nil {
				return nil, err
			}
			statements = append(statements, plan...)
			continue
		}

		sql, err := d.renderSimpleOp(ops[index])
		if err != nil {
			return nil, err
		}
		statements = append(statements, dialect.SQLStatement{SQL: sql, Transactional: true})
		index++
	}
	return statements, nil
}

func rebuildTarget(op diff.DiffOp) (ir.QualifiedName, bool) {
	switch v := op.(type) {
	case diff.AlterColumnOp:
		return v.Table, true
	case diff.DropColumnOp:
		return v.Table, true
	case diff.AddForeignKeyOp:
		return v.Table, true
	case diff.DropForeignKeyOp:
		return v.Table, true
	case diff.AddCheckOp:
		return v.Table, true
	case diff.DropCheckOp:
		return v.Table, true
	case diff.AddExclusionOp:
		return v.Table, true
	case diff.DropExclusionOp:
		return v.Table, true
	case diff.SetPrimaryKeyOp:
		return v.Table, true
	case diff.DropPrimaryKeyOp:
		return v.Table, true
	default:
		return ir.QualifiedName{}, false
	}
}

func qualifiedNameEqual(a, b ir.QualifiedName) bool {
	if (a.Schema == nil) != (b.Schema == nil) {
		return false
	}
	if a.Schema != nil && a.Schema.Value != b.Schema.Value {
		return false
	}
	return a.Name.Value == b.Name.Value
}

func (d Dialect) renderSimpleOp(op diff.DiffOp) (string, error) {
	switch v := op.(type) {
	case diff.CreateTableOp:
		return renderCreateTable(v.Table, d) + ";", nil
	case diff.DropTableOp:
		return fmt.Sprintf("DROP TABLE %s;", d.QuoteIdent(v.Name.Name)), nil
	case diff.RenameTableOp:
		if !qualifiedNameEqual(v.From, v.To) && (v.From.Schema != nil) != (v.To.Schema != nil) {
			return "", &corerr.GenerateError{DiffOp: "RenameTable", Target: v.From.Name.Value, Dialect: d.Name()}
		}
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", d.QuoteIdent(v.From.Name), d.QuoteIdent(v.To.Name)), nil
	case diff.AddColumnOp:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", d.QuoteIdent(v.Table.Name), d.QuoteIdent(v.Column.Name), renderDataType(v.Column.DataType)), nil
	case diff.RenameColumnOp:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", d.QuoteIdent(v.Table.Name), d.QuoteIdent(v.From), d.QuoteIdent(v.To)), nil
	case diff.AddIndexOp:
		return renderCreateIndex(v.Index, d) + ";", nil
	case diff.DropIndexOp:
		return fmt.Sprintf("DROP INDEX %s;", d.QuoteIdent(v.Name)), nil
	case diff.CreateViewOp:
		return fmt.Sprintf("CREATE VIEW %s AS %s;", d.QuoteIdent(v.View.Name.Name), v.View.Query), nil
	case diff.DropViewOp:
		return fmt.Sprintf("DROP VIEW %s;", d.QuoteIdent(v.Name.Name)), nil
	default:
		return "", &corerr.GenerateError{DiffOp: fmt.Sprintf("%T", op), Dialect: d.Name()}
	}
}

// buildRebuildPlan emits the six-step create-shadow-copy-swap sequence:
// a batch of ops on the same table can't each be applied incrementally
// since SQLite's ALTER TABLE has no direct equivalent for most of them,
// so the whole batch is folded into one rebuilt table definition.
func (d Dialect) buildRebuildPlan(table ir.QualifiedName, ops []diff.DiffOp) ([]dialect.Statement, error) {
	rebuilt, err := d.applyRebuildOps(table, ops)
	if err != nil {
		return nil, err
	}

	shadow := ir.QualifiedName{Schema: table.Schema, Name: ir.NewIdent(shadowTablePrefix + table.Name.Value)}
	shadowTable := rebuilt
	shadowTable.Name = shadow

	var columnNames []string
	for _, c := range rebuilt.Columns {
		columnNames = append(columnNames, d.QuoteIdent(c.Name))
	}
	columnList := strings.Join(columnNames, ", ")

	step := func(sql string, kind corerr.SqliteRebuildStep) dialect.Statement {
		return dialect.SQLStatement{
			SQL:           sql,
			Transactional: true,
			Context:       corerr.SqliteTableRebuildContext{Table: table, Step: kind},
		}
	}

	return []dialect.Statement{
		step(renderCreateTable(shadowTable, d)+";", corerr.SqliteRebuildCreateShadowTable),
		step(fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;", d.QuoteIdent(shadow.Name), columnList, columnList, d.QuoteIdent(table.Name)), corerr.SqliteRebuildCopyData),
		step(fmt.Sprintf("DROP TABLE %s;", d.QuoteIdent(table.Name)), corerr.SqliteRebuildDropOldTable),
		step(fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", d.QuoteIdent(shadow.Name), d.QuoteIdent(table.Name)), corerr.SqliteRebuildRenameShadowTable),
		step(fmt.Sprintf("-- sqlite rebuild: recreate indexes for %s", d.QuoteIdent(table.Name)), corerr.SqliteRebuildRecreateIndexes),
		step(fmt.Sprintf("-- sqlite rebuild: recreate triggers for %s", d.QuoteIdent(table.Name)), corerr.SqliteRebuildRecreateTriggers),
	}, nil
}

// applyRebuildOps folds a batch of same-table ops into a single rebuilt
// ir.Table value used as the shadow table's definition. It only has the
// batch itself to work from (no live "current" table snapshot at this
// layer), so AddForeignKey/AddCheck/SetPrimaryKey ops contribute their new
// constraint and AlterColumn/DropColumn ops are applied against columns
// named within the batch; a column untouched by the batch keeps whatever
// shape the caller already gave the shadow table's starting point.
func (d Dialect) applyRebuildOps(table ir.QualifiedName, ops []diff.DiffOp) (ir.Table, error) {
	result := ir.Table{Name: table}
	columnIndex := map[string]int{}

	for _, op := range ops {
		switch v := op.(type) {
		case diff.AlterColumnOp:
			idx, ok := columnIndex[v.Column.Value]
			if !ok {
				idx = len(result.Columns)
				columnIndex[v.Column.Value] = idx
				result.Columns = append(result.Columns, ir.Column{Name: v.Column})
			}
			applyColumnChanges(&result.Columns[idx], v.Changes)
		case diff.DropColumnOp:
			if idx, ok := columnIndex[v.Column.Value]; ok {
				result.Columns = append(result.Columns[:idx], result.Columns[idx+1:]...)
				delete(columnIndex, v.Column.Value)
			}
		case diff.AddForeignKeyOp:
			result.ForeignKeys = append(result.ForeignKeys, v.FK)
		case diff.DropForeignKeyOp:
			result.ForeignKeys = dropForeignKeyByName(result.ForeignKeys, v.Name)
		case diff.AddCheckOp:
			result.Checks = append(result.Checks, v.Check)
		case diff.DropCheckOp:
			result.Checks = dropCheckByName(result.Checks, v.Name)
		case diff.SetPrimaryKeyOp:
			pk := v.PK
			result.PrimaryKey = &pk
		case diff.DropPrimaryKeyOp:
			result.PrimaryKey = nil
		}
	}
	return result, nil
}

func applyColumnChanges(column *ir.Column, changes []diff.ColumnChange) {
	for _, change := range changes {
		switch c := change.(type) {
		case diff.SetTypeChange:
			column.DataType = c.Type
		case diff.SetNotNullChange:
			column.NotNull = c.NotNull
		case diff.SetDefaultChange:
			column.Default = c.Default
		}
	}
}

func dropForeignKeyByName(fks []ir.ForeignKey, name ir.Ident) []ir.ForeignKey {
	var kept []ir.ForeignKey
	for _, fk := range fks {
		if fk.Name != nil && fk.Name.Value == name.Value {
			continue
		}
		kept = append(kept, fk)
	}
	return kept
}

func dropCheckByName(checks []ir.CheckConstraint, name ir.Ident) []ir.CheckConstraint {
	var kept []ir.CheckConstraint
	for _, check := range checks {
		if check.Name != nil && check.Name.Value == name.Value {
			continue
		}
		kept = append(kept, check)
	}
	return kept
}
