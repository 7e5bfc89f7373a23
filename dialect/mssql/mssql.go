// Package mssql implements the dialect.Dialect contract against SQL
// Server: parsing shares the dialect/ddl recursive-descent core, DDL
// generation builds on ddl.GenerateCommon with T-SQL's own rename/type
// syntax, and the driver is denisenkom/go-mssqldb, batching statements
// with the "GO" separator T-SQL scripts use between batches.
package mssql

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/dialect/ddl"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string           { return "mssql" }
func (Dialect) BatchSeparator() string { return "GO" }

func (Dialect) EquivalencePolicy() diffcfg.EquivalencePolicy {
	return diffcfg.DefaultEquivalencePolicy{}
}

func (Dialect) QuoteIdent(id ir.Ident) string {
	return "[" + strings.ReplaceAll(id.Value, "]", "]]") + "]"
}

func (d Dialect) Normalize(obj ir.SchemaObject) ir.SchemaObject { return obj }

func (d Dialect) Parse(sql string) ([]ir.SchemaObject, error) {
	return ddl.ParseStatements(sql, typeMapper)
}

func (d Dialect) ToSQL(obj ir.SchemaObject) (string, error) {
	switch v := obj.(type) {
	case ir.TableObject:
		return renderCreateTable(v.Table, d) + ";\nGO\n", nil
	case ir.ViewObject:
		return fmt.Sprintf("CREATE VIEW %s AS %s;\nGO\n", d.QuoteIdent(v.View.Name.Name), v.View.Query), nil
	case ir.IndexObject:
		return renderCreateIndex(v.Index, d) + ";\nGO\n", nil
	default:
		return "", fmt.Errorf("mssql: cannot render %T to SQL", obj)
	}
}

func (d Dialect) GenerateDDL(ops []diff.DiffOp) ([]dialect.Statement, error) {
	return ddl.GenerateCommon(ops, d.syntax())
}

func (d Dialect) syntax() ddl.Syntax {
	return ddl.Syntax{
		DialectName: d.Name(),
		QuoteIdent:  d.QuoteIdent,
		RenderType:  renderDataType,
		RenameTable: func(from, to ir.QualifiedName) []string {
			return []string{fmt.Sprintf("EXEC sp_rename '%s', '%s'", from.Name.Value, to.Name.Value)}
		},
	}
}

func (Dialect) Connect(config dialect.ConnectionConfig) (dialect.DatabaseAdapter, error) {
	query := make([]string, 0, 4)
	host := "localhost"
	if config.Host != nil {
		host = *config.Host
	}
	port := uint16(1433)
	if config.Port != nil {
		port = *config.Port
	}
	if config.User != nil {
		query = append(query, "user id="+*config.User)
	}
	if config.Password != nil {
		query = append(query, "password="+*config.Password)
	}
	query = append(query, "database="+config.Database)

	dsn := fmt.Sprintf("sqlserver://%s:%d?%s", host, port, strings.Join(query, "&"))
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	return &Adapter{db: db, config: config}, nil
}

func renderDataType(t ir.DataType) string {
	switch v := t.(type) {
	case ir.BooleanType:
		return "bit"
	case ir.SmallIntType:
		return "smallint"
	case ir.IntegerType:
		return "int"
	case ir.BigIntType:
		return "bigint"
	case ir.RealType:
		return "real"
	case ir.DoublePrecisionType:
		return "float"
	case ir.TextType:
		return "nvarchar(max)"
	case ir.BlobType:
		return "varbinary(max)"
	case ir.DateType:
		return "date"
	case ir.JSONType, ir.JSONBType:
		return "nvarchar(max)"
	case ir.UUIDType:
		return "uniqueidentifier"
	case ir.NumericType:
		if v.Precision != nil && v.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *v.Precision, *v.Scale)
		}
		return "decimal"
	case ir.VarcharType:
		if v.Length != nil {
			return fmt.Sprintf("nvarchar(%d)", *v.Length)
		}
		return "nvarchar(255)"
	case ir.CharType:
		if v.Length != nil {
			return fmt.Sprintf("nchar(%d)", *v.Length)
		}
		return "nchar(1)"
	case ir.TimeType:
		return "time"
	case ir.TimestampType:
		return "datetime2"
	case ir.ArrayType:
		return renderDataType(v.Elem)
	case ir.CustomType:
		return v.Name
	default:
		panic("mssql: unreachable DataType variant")
	}
}

func typeMapper(name string, args []int) ir.DataType {
	switch name {
	case "bit":
		return ir.BooleanType{}
	case "smallint":
		return ir.SmallIntType{}
	case "int":
		return ir.IntegerType{}
	case "bigint":
		return ir.BigIntType{}
	case "real":
		return ir.RealType{}
	case "float":
		return ir.DoublePrecisionType{}
	case "text", "ntext":
		return ir.TextType{}
	case "varchar", "nvarchar":
		if len(args) == 0 {
			return ir.TextType{}
		}
		l := uint32(args[0])
		return ir.VarcharType{Length: &l}
	case "char", "nchar":
		if len(args) == 0 {
			return ir.CharType{}
		}
		l := uint32(args[0])
		return ir.CharType{Length: &l}
	case "varbinary", "binary", "image":
		return ir.BlobType{}
	case "date":
		return ir.DateType{}
	case "time":
		return ir.TimeType{}
	case "datetime", "datetime2", "smalldatetime":
		return ir.TimestampType{}
	case "decimal", "numeric":
		var precision, scale *uint32
		if len(args) > 0 {
			p := uint32(args[0])
			precision = &p
		}
		if len(args) > 1 {
			s := uint32(args[1])
			scale = &s
		}
		return ir.NumericType{Precision: precision, Scale: scale}
	case "uniqueidentifier":
		return ir.UUIDType{}
	default:
		return ir.CustomType{Name: name}
	}
}

func renderCreateTable(table ir.Table, d Dialect) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", d.QuoteIdent(table.Name.Name))
	for i, column := range table.Columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(&sb, "  %s %s", d.QuoteIdent(column.Name), renderDataType(column.DataType))
		if column.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if column.Default != nil {
			fmt.Fprintf(&sb, " DEFAULT %s", ddl.RenderExpr(column.Default))
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
	sb.WriteString("\n)")
	return sb.String()
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
