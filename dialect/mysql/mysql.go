// Package mysql implements the dialect.Dialect contract against MySQL: SQL
// parsing and rendering share the dialect/ddl recursive-descent core (MySQL
// has no parser library available here the way Postgres does), introspection
// is built on SHOW CREATE TABLE, and the driver is go-sql-driver/mysql.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/dialect/ddl"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

type Dialect struct{}

func New() Dialect { return Dialect{} }

func (Dialect) Name() string           { return "mysql" }
func (Dialect) BatchSeparator() string { return "" }

func (Dialect) EquivalencePolicy() diffcfg.EquivalencePolicy {
	return diffcfg.DefaultEquivalencePolicy{}
}

func (Dialect) QuoteIdent(id ir.Ident) string {
	return "`" + strings.ReplaceAll(id.Value, "`", "``") + "`"
}

func (d Dialect) Normalize(obj ir.SchemaObject) ir.SchemaObject { return obj }

func (d Dialect) Parse(sql string) ([]ir.SchemaObject, error) {
	return ddl.ParseStatements(sql, typeMapper)
}

func (d Dialect) ToSQL(obj ir.SchemaObject) (string, error) {
	return renderObject(obj, d)
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
			return []string{fmt.Sprintf("RENAME TABLE %s TO %s", d.QuoteIdent(from.Name), d.QuoteIdent(to.Name))}
		},
	}
}

func (Dialect) Connect(config dialect.ConnectionConfig) (dialect.DatabaseAdapter, error) {
	cfg := driver.NewConfig()
	if config.User != nil {
		cfg.User = *config.User
	}
	if config.Password != nil {
		cfg.Passwd = *config.Password
	}
	cfg.DBName = config.Database
	cfg.Net = "tcp"
	host := "127.0.0.1"
	if config.Host != nil {
		host = *config.Host
	}
	port := uint16(3306)
	if config.Port != nil {
		port = *config.Port
	}
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	if config.Socket != nil {
		cfg.Net = "unix"
		cfg.Addr = *config.Socket
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	return &Adapter{db: db, config: config}, nil
}

func renderDataType(t ir.DataType) string {
	switch v := t.(type) {
	case ir.BooleanType:
		return "tinyint(1)"
	case ir.SmallIntType:
		return "smallint"
	case ir.IntegerType:
		return "int"
	case ir.BigIntType:
		return "bigint"
	case ir.RealType:
		return "float"
	case ir.DoublePrecisionType:
		return "double"
	case ir.TextType:
		return "text"
	case ir.BlobType:
		return "blob"
	case ir.DateType:
		return "date"
	case ir.JSONType, ir.JSONBType:
		return "json"
	case ir.UUIDType:
		return "char(36)"
	case ir.NumericType:
		if v.Precision != nil && v.Scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *v.Precision, *v.Scale)
		}
		return "decimal"
	case ir.VarcharType:
		if v.Length != nil {
			return fmt.Sprintf("varchar(%d)", *v.Length)
		}
		return "varchar(255)"
	case ir.CharType:
		if v.Length != nil {
			return fmt.Sprintf("char(%d)", *v.Length)
		}
		return "char(1)"
	case ir.TimeType:
		return "time"
	case ir.TimestampType:
		return "datetime"
	case ir.ArrayType:
		return renderDataType(v.Elem)
	case ir.CustomType:
		return v.Name
	default:
		panic("mysql: unreachable DataType variant")
	}
}

func typeMapper(name string, args []int) ir.DataType {
	switch name {
	case "tinyint":
		if len(args) == 1 && args[0] == 1 {
			return ir.BooleanType{}
		}
		return ir.SmallIntType{}
	case "smallint":
		return ir.SmallIntType{}
	case "int", "integer", "mediumint":
		return ir.IntegerType{}
	case "bigint":
		return ir.BigIntType{}
	case "float":
		return ir.RealType{}
	case "double":
		return ir.DoublePrecisionType{}
	case "text", "longtext", "mediumtext", "tinytext":
		return ir.TextType{}
	case "blob", "longblob", "mediumblob", "tinyblob", "binary", "varbinary":
		return ir.BlobType{}
	case "date":
		return ir.DateType{}
	case "json":
		return ir.JSONType{}
	case "time":
		return ir.TimeType{}
	case "datetime", "timestamp":
		return ir.TimestampType{}
	case "decimal", "numeric":
		return numericFromArgs(args)
	case "varchar":
		return varcharFromArgs(args)
	case "char":
		return charFromArgs(args)
	default:
		return ir.CustomType{Name: name}
	}
}

func numericFromArgs(args []int) ir.DataType {
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
}

func varcharFromArgs(args []int) ir.DataType {
	if len(args) == 0 {
		return ir.VarcharType{}
	}
	l := uint32(args[0])
	return ir.VarcharType{Length: &l}
}

func charFromArgs(args []int) ir.DataType {
	if len(args) == 0 {
		return ir.CharType{}
	}
	l := uint32(args[0])
	return ir.CharType{Length: &l}
}

func renderObject(obj ir.SchemaObject, d Dialect) (string, error) {
	switch v := obj.(type) {
	case ir.TableObject:
		return renderCreateTable(v.Table, d) + ";\n", nil
	case ir.ViewObject:
		return fmt.Sprintf("CREATE VIEW %s AS %s;\n", d.QuoteIdent(v.View.Name.Name), v.View.Query), nil
	case ir.IndexObject:
		return renderCreateIndex(v.Index, d) + ";\n", nil
	default:
		return "", fmt.Errorf("mysql: cannot render %T to SQL", obj)
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
