package ddl

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/ir"
)

// Syntax supplies the handful of things that actually differ across the
// text-based dialects (mysql, sqlite, mssql) that share this generator:
// identifier quoting, native type spelling and how a table rename is
// spelled. Everything else about turning a DiffOp into SQL text is common
// enough across these three that duplicating it per dialect would just be
// copying, not adapting.
type Syntax struct {
	DialectName string
	QuoteIdent  func(ir.Ident) string
	RenderType  func(ir.DataType) string
	// RenameTable returns the statement(s) needed to rename a table; MySQL
	// and SQLite use "RENAME TABLE"/"ALTER TABLE ... RENAME TO", mssql uses
	// "EXEC sp_rename".
	RenameTable func(from, to ir.QualifiedName) []string
}

// GenerateCommon converts ops into Statement values for the shared subset
// of DiffOp that text-based ALTER TABLE syntax covers across mysql,
// sqlite and mssql. Anything outside that subset (sequences, triggers,
// functions, types, domains, extensions, schemas, grants, policies,
// partitions, exclusions) returns corerr.GenerateError, matching the
// Dialect contract's own documented fail-fast-per-op behavior.
func GenerateCommon(ops []diff.DiffOp, syntax Syntax) ([]dialect.Statement, error) {
	var statements []dialect.Statement
	for _, op := range ops {
		sql, err := renderOp(op, syntax)
		if err != nil {
			return nil, err
		}
		statements = append(statements, dialect.SQLStatement{SQL: sql, Transactional: true})
	}
	return statements, nil
}

func renderOp(op diff.DiffOp, syntax Syntax) (string, error) {
	switch v := op.(type) {
	case diff.CreateTableOp:
		return renderCreateTable(v.Table, syntax), nil
	case diff.DropTableOp:
		return fmt.Sprintf("DROP TABLE %s", qname(v.Name, syntax)), nil
	case diff.RenameTableOp:
		return strings.Join(syntax.RenameTable(v.From, v.To), "; "), nil
	case diff.AddColumnOp:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qname(v.Table, syntax), renderColumn(v.Column, syntax)), nil
	case diff.DropColumnOp:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qname(v.Table, syntax), ident(v.Column, syntax)), nil
	case diff.AlterColumnOp:
		return renderAlterColumn(v, syntax), nil
	case diff.RenameColumnOp:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", qname(v.Table, syntax), ident(v.From, syntax), ident(v.To, syntax)), nil
	case diff.AddIndexOp:
		return renderAddIndex(v.Index, syntax), nil
	case diff.DropIndexOp:
		return fmt.Sprintf("DROP INDEX %s", ident(v.Name, syntax)), nil
	case diff.RenameIndexOp:
		return fmt.Sprintf("ALTER INDEX %s RENAME TO %s", ident(v.From, syntax), ident(v.To, syntax)), nil
	case diff.AddForeignKeyOp:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", qname(v.Table, syntax), renderForeignKey(v.FK, syntax)), nil
	case diff.DropForeignKeyOp:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qname(v.Table, syntax), ident(v.Name, syntax)), nil
	case diff.AddCheckOp:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", qname(v.Table, syntax), renderCheck(v.Check, syntax)), nil
	case diff.DropCheckOp:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qname(v.Table, syntax), ident(v.Name, syntax)), nil
	case diff.SetPrimaryKeyOp:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", qname(v.Table, syntax), renderPrimaryKey(v.PK, syntax)), nil
	case diff.DropPrimaryKeyOp:
		return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", qname(v.Table, syntax)), nil
	case diff.CreateViewOp:
		return fmt.Sprintf("CREATE VIEW %s AS %s", qname(v.View.Name, syntax), v.View.Query), nil
	case diff.DropViewOp:
		return fmt.Sprintf("DROP VIEW %s", qname(v.Name, syntax)), nil
	case diff.AlterTableOptionsOp:
		return renderAlterTableOptions(v, syntax), nil
	default:
		return "", &corerr.GenerateError{DiffOp: diffOpTag(op), Target: diffOpTarget(op), Dialect: syntax.DialectName}
	}
}

func renderCreateTable(table ir.Table, syntax Syntax) string {
	var parts []string
	for _, column := range table.Columns {
		parts = append(parts, renderColumn(column, syntax))
	}
	if table.PrimaryKey != nil {
		parts = append(parts, renderPrimaryKey(*table.PrimaryKey, syntax))
	}
	for _, fk := range table.ForeignKeys {
		parts = append(parts, renderForeignKey(fk, syntax))
	}
	for _, check := range table.Checks {
		parts = append(parts, renderCheck(check, syntax))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", qname(table.Name, syntax), strings.Join(parts, ",\n  "))
}

func renderColumn(column ir.Column, syntax Syntax) string {
	var sb strings.Builder
	sb.WriteString(ident(column.Name, syntax))
	sb.WriteByte(' ')
	sb.WriteString(syntax.RenderType(column.DataType))
	if column.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if column.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(RenderExpr(column.Default))
	}
	if column.Identity != nil {
		if column.Identity.Always {
			sb.WriteString(" GENERATED ALWAYS AS IDENTITY")
		} else {
			sb.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
		}
	}
	if column.Generated != nil {
		sb.WriteString(" GENERATED ALWAYS AS (")
		sb.WriteString(RenderExpr(column.Generated.Expr))
		sb.WriteByte(')')
		if column.Generated.Stored {
			sb.WriteString(" STORED")
		}
	}
	return sb.String()
}

func renderAlterColumn(op diff.AlterColumnOp, syntax Syntax) string {
	var clauses []string
	for _, change := range op.Changes {
		switch c := change.(type) {
		case diff.SetTypeChange:
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s TYPE %s", ident(op.Column, syntax), syntax.RenderType(c.Type)))
		case diff.SetNotNullChange:
			if c.NotNull {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", ident(op.Column, syntax)))
			} else {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", ident(op.Column, syntax)))
			}
		case diff.SetDefaultChange:
			if c.Default == nil {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", ident(op.Column, syntax)))
			} else {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", ident(op.Column, syntax), RenderExpr(c.Default)))
			}
		case diff.SetIdentityChange:
			if c.Identity == nil {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP IDENTITY", ident(op.Column, syntax)))
			} else {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s ADD GENERATED BY DEFAULT AS IDENTITY", ident(op.Column, syntax)))
			}
		case diff.SetGeneratedChange:
			clauses = append(clauses, fmt.Sprintf("/* unsupported generated-column change on %s */", ident(op.Column, syntax)))
		case diff.SetCollationChange:
			if c.Collation != nil {
				clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET DATA TYPE COLLATE %s", ident(op.Column, syntax), *c.Collation))
			}
		}
	}
	prefix := fmt.Sprintf("ALTER TABLE %s ", qname(op.Table, syntax))
	return prefix + strings.Join(clauses, ", "+prefix)
}

func renderAddIndex(index ir.IndexDef, syntax Syntax) string {
	var cols []string
	for _, c := range index.Columns {
		cols = append(cols, RenderExpr(c.Expr))
	}
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	name := ""
	if index.Name != nil {
		name = ident(*index.Name, syntax) + " "
	}
	return fmt.Sprintf("CREATE %sINDEX %sON %s (%s)", unique, name, qname(index.Owner.Name, syntax), strings.Join(cols, ", "))
}

func renderForeignKey(fk ir.ForeignKey, syntax Syntax) string {
	var cols, refCols []string
	for _, c := range fk.Columns {
		cols = append(cols, ident(c, syntax))
	}
	for _, c := range fk.ReferencedColumns {
		refCols = append(refCols, ident(c, syntax))
	}
	name := ""
	if fk.Name != nil {
		name = fmt.Sprintf("CONSTRAINT %s ", ident(*fk.Name, syntax))
	}
	sql := fmt.Sprintf("%sFOREIGN KEY (%s) REFERENCES %s (%s)", name, strings.Join(cols, ", "), qname(fk.ReferencedTable, syntax), strings.Join(refCols, ", "))
	if fk.OnDelete != nil {
		sql += " ON DELETE " + foreignKeyActionSQL(*fk.OnDelete)
	}
	if fk.OnUpdate != nil {
		sql += " ON UPDATE " + foreignKeyActionSQL(*fk.OnUpdate)
	}
	return sql
}

func foreignKeyActionSQL(action ir.ForeignKeyAction) string {
	switch action {
	case ir.FKActionNoAction:
		return "NO ACTION"
	case ir.FKActionRestrict:
		return "RESTRICT"
	case ir.FKActionCascade:
		return "CASCADE"
	case ir.FKActionSetNull:
		return "SET NULL"
	case ir.FKActionSetDefault:
		return "SET DEFAULT"
	default:
		panic("ddl: unreachable ForeignKeyAction variant")
	}
}

func renderCheck(check ir.CheckConstraint, syntax Syntax) string {
	name := ""
	if check.Name != nil {
		name = fmt.Sprintf("CONSTRAINT %s ", ident(*check.Name, syntax))
	}
	return fmt.Sprintf("%sCHECK (%s)", name, RenderExpr(check.Expr))
}

func renderPrimaryKey(pk ir.PrimaryKey, syntax Syntax) string {
	var cols []string
	for _, c := range pk.Columns {
		cols = append(cols, ident(c, syntax))
	}
	name := ""
	if pk.Name != nil {
		name = fmt.Sprintf("CONSTRAINT %s ", ident(*pk.Name, syntax))
	}
	return fmt.Sprintf("%sPRIMARY KEY (%s)", name, strings.Join(cols, ", "))
}

func renderAlterTableOptions(op diff.AlterTableOptionsOp, syntax Syntax) string {
	var parts []string
	for key, value := range op.Options.Extra {
		parts = append(parts, fmt.Sprintf("%s=%s", key, valueText(value)))
	}
	return fmt.Sprintf("ALTER TABLE %s %s", qname(op.Table, syntax), strings.Join(parts, " "))
}

func valueText(v ir.Value) string {
	switch val := v.(type) {
	case ir.StringValue:
		return val.Value
	case ir.IntegerValue:
		return fmt.Sprintf("%d", val.Value)
	case ir.FloatValue:
		return fmt.Sprintf("%g", val.Value)
	case ir.BoolValue:
		if val.Value {
			return "true"
		}
		return "false"
	case ir.NullValue:
		return "null"
	default:
		return ""
	}
}

func ident(id ir.Ident, syntax Syntax) string {
	return syntax.QuoteIdent(id)
}

func qname(name ir.QualifiedName, syntax Syntax) string {
	if name.Schema != nil {
		return syntax.QuoteIdent(*name.Schema) + "." + syntax.QuoteIdent(name.Name)
	}
	return syntax.QuoteIdent(name.Name)
}

func diffOpTag(op diff.DiffOp) string {
	return fmt.Sprintf("%T", op)
}

func diffOpTarget(op diff.DiffOp) string {
	switch v := op.(type) {
	case diff.CreateSequenceOp:
		return qnamePlain(v.Sequence.Name)
	case diff.DropSequenceOp:
		return qnamePlain(v.Name)
	case diff.CreateTriggerOp:
		return qnamePlain(v.Trigger.Name)
	case diff.CreateFunctionOp:
		return qnamePlain(v.Function.Name)
	case diff.CreateTypeOp:
		return qnamePlain(v.Type.Name)
	case diff.CreateDomainOp:
		return qnamePlain(v.Domain.Name)
	case diff.CreateExtensionOp:
		return v.Extension.Name.Value
	case diff.CreateSchemaOp:
		return v.Schema.Name.Value
	case diff.CreatePolicyOp:
		return v.Policy.Name.Value
	case diff.AddExclusionOp:
		return qnamePlain(v.Table)
	case diff.DropExclusionOp:
		return qnamePlain(v.Table)
	case diff.AddPartitionOp:
		return qnamePlain(v.Table)
	case diff.DropPartitionOp:
		return qnamePlain(v.Table)
	case diff.AlterSequenceOp:
		return qnamePlain(v.Name)
	case diff.AlterTypeOp:
		return qnamePlain(v.Name)
	case diff.AlterDomainOp:
		return qnamePlain(v.Name)
	case diff.SetCommentOp:
		return "comment"
	case diff.DropCommentOp:
		return "comment"
	case diff.GrantOp, diff.RevokeOp:
		return "privilege"
	case diff.DropPolicyOp:
		return qnamePlain(v.Table)
	case diff.CreateMaterializedViewOp:
		return qnamePlain(v.MaterializedView.Name)
	case diff.DropMaterializedViewOp:
		return qnamePlain(v.Name)
	case diff.DropTriggerOp:
		return qnamePlain(v.Name)
	case diff.DropFunctionOp:
		return qnamePlain(v.Name)
	case diff.DropTypeOp:
		return qnamePlain(v.Name)
	case diff.DropDomainOp:
		return qnamePlain(v.Name)
	case diff.DropExtensionOp:
		return qnamePlain(v.Name)
	case diff.DropSchemaOp:
		return qnamePlain(v.Name)
	default:
		return ""
	}
}

func qnamePlain(name ir.QualifiedName) string {
	if name.Schema != nil {
		return name.Schema.Value + "." + name.Name.Value
	}
	return name.Name.Value
}
