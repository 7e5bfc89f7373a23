package postgres

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/schemadrift/schemadrift/dialect"
)

// Adapter is a live connection to a Postgres server, implementing the
// dialect.DatabaseAdapter contract.
type Adapter struct {
	db     *sql.DB
	config dialect.ConnectionConfig
}

func (a *Adapter) Execute(sql string) error {
	_, err := a.db.Exec(sql)
	return err
}

func (a *Adapter) Begin() (dialect.Transaction, error) {
	tx, err := a.db.Begin()
	if err != nil {
		return nil, err
	}
	return &txn{tx: tx}, nil
}

func (a *Adapter) SchemaSearchPath() []string {
	if len(a.config.Extra["search_path"]) > 0 {
		return strings.Split(a.config.Extra["search_path"], ",")
	}
	return []string{"public"}
}

func (a *Adapter) ServerVersion() (dialect.Version, error) {
	var versionString string
	if err := a.db.QueryRow("SHOW server_version").Scan(&versionString); err != nil {
		return dialect.Version{}, err
	}
	return parseServerVersion(versionString), nil
}

func parseServerVersion(raw string) dialect.Version {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '.' || r == ' ' })
	var parts [3]uint16
	for i := 0; i < len(fields) && i < 3; i++ {
		if n, err := strconv.Atoi(fields[i]); err == nil {
			parts[i] = uint16(n)
		}
	}
	return dialect.Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

// ExportSchema pulls the live schema and renders it back to SQL text
// through this dialect's own canonical form, assembling per-table DDL
// from several introspection queries scoped to tables, columns, primary
// keys, indexes and foreign keys.
func (a *Adapter) ExportSchema() (string, error) {
	tables, err := a.tableNames()
	if err != nil {
		return "", err
	}

	ddls, err := dialect.ConcurrentMap(tables, 8, func(table string) (string, error) {
		ddl, err := a.exportTableDDL(table)
		if err != nil {
			return "", fmt.Errorf("postgres: export table %q: %w", table, err)
		}
		return ddl, nil
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, ddl := range ddls {
		sb.WriteString(ddl)
	}

	views, err := a.exportViews()
	if err != nil {
		return "", err
	}
	sb.WriteString(views)

	return sb.String(), nil
}

func (a *Adapter) tableNames() ([]string, error) {
	rows, err := a.db.Query(`
		select n.nspname, c.relname from pg_catalog.pg_class c
		inner join pg_catalog.pg_namespace n on c.relnamespace = n.oid
		where n.nspname not in ('information_schema', 'pg_catalog')
		and c.relkind in ('r', 'p')
		and c.relpersistence in ('p', 'u')
		and c.relispartition = false
		and not exists (select 1 from pg_catalog.pg_depend d where c.oid = d.objid and d.deptype = 'e')
		order by n.nspname, c.relname
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, err
		}
		tables = append(tables, schema+"."+name)
	}
	return tables, rows.Err()
}

func (a *Adapter) exportTableDDL(qualifiedTable string) (string, error) {
	schema, table, _ := strings.Cut(qualifiedTable, ".")

	columns, err := a.columns(schema, table)
	if err != nil {
		return "", err
	}
	pkColumns, pkName, err := a.primaryKey(schema, table)
	if err != nil {
		return "", err
	}
	indexDefs, err := a.indexDefs(schema, table)
	if err != nil {
		return "", err
	}
	foreignDefs, err := a.foreignKeyDefs(schema, table)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %q.%q (\n", schema, table)
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(&sb, "    %q %s", col.name, col.dataType)
		if !col.nullable {
			sb.WriteString(" NOT NULL")
		}
		if col.defaultExpr != "" && !col.isSerial {
			fmt.Fprintf(&sb, " DEFAULT %s", col.defaultExpr)
		}
	}
	if len(pkColumns) > 0 {
		fmt.Fprintf(&sb, ",\n    CONSTRAINT %q PRIMARY KEY (%s)", pkName, quoteCSV(pkColumns))
	}
	sb.WriteString("\n);\n")

	for _, def := range indexDefs {
		sb.WriteString(def)
		sb.WriteString(";\n")
	}
	for _, def := range foreignDefs {
		sb.WriteString(def)
		sb.WriteString(";\n")
	}
	return sb.String(), nil
}

func quoteCSV(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}

type introspectedColumn struct {
	name        string
	dataType    string
	nullable    bool
	defaultExpr string
	isSerial    bool
}

func (a *Adapter) columns(schema, table string) ([]introspectedColumn, error) {
	rows, err := a.db.Query(`
		select column_name, format_type(a.atttypid, a.atttypmod), is_nullable, column_default
		from information_schema.columns c
		join pg_catalog.pg_class rel on rel.relname = c.table_name
		join pg_catalog.pg_namespace ns on ns.oid = rel.relnamespace and ns.nspname = c.table_schema
		join pg_catalog.pg_attribute a on a.attrelid = rel.oid and a.attname = c.column_name
		where c.table_schema = $1 and c.table_name = $2 and a.attnum > 0
		order by c.ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []introspectedColumn
	for rows.Next() {
		var name, dataType, nullable string
		var defaultExpr *string
		if err := rows.Scan(&name, &dataType, &nullable, &defaultExpr); err != nil {
			return nil, err
		}
		col := introspectedColumn{name: name, dataType: dataType, nullable: nullable == "YES"}
		if defaultExpr != nil {
			col.defaultExpr = *defaultExpr
			col.isSerial = strings.HasPrefix(*defaultExpr, "nextval(")
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (a *Adapter) primaryKey(schema, table string) ([]string, string, error) {
	rows, err := a.db.Query(`
		select kcu.column_name, tc.constraint_name
		from information_schema.table_constraints tc
		join information_schema.key_column_usage kcu
		  on kcu.constraint_name = tc.constraint_name and kcu.table_schema = tc.table_schema
		where tc.constraint_type = 'PRIMARY KEY' and tc.table_schema = $1 and tc.table_name = $2
		order by kcu.ordinal_position
	`, schema, table)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var columns []string
	var name string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column, &name); err != nil {
			return nil, "", err
		}
		columns = append(columns, column)
	}
	return columns, name, rows.Err()
}

func (a *Adapter) indexDefs(schema, table string) ([]string, error) {
	rows, err := a.db.Query(`
		select indexdef from pg_catalog.pg_indexes
		where schemaname = $1 and tablename = $2
		and indexname not in (
			select conname from pg_catalog.pg_constraint con
			join pg_catalog.pg_class cls on cls.oid = con.conrelid
			join pg_catalog.pg_namespace nsp on nsp.oid = con.connamespace
			where nsp.nspname = $1 and cls.relname = $2 and con.contype in ('p', 'u')
		)
	`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []string
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (a *Adapter) foreignKeyDefs(schema, table string) ([]string, error) {
	rows, err := a.db.Query(`
		select 'ALTER TABLE ' || quote_ident($2) || ' ADD CONSTRAINT ' || quote_ident(con.conname) ||
		       ' ' || pg_get_constraintdef(con.oid)
		from pg_catalog.pg_constraint con
		join pg_catalog.pg_class cls on cls.oid = con.conrelid
		join pg_catalog.pg_namespace nsp on nsp.oid = con.connamespace
		where nsp.nspname = $1 and cls.relname = $2 and con.contype = 'f'
	`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []string
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (a *Adapter) exportViews() (string, error) {
	rows, err := a.db.Query(`
		select n.nspname, c.relname, pg_get_viewdef(c.oid)
		from pg_catalog.pg_class c
		join pg_catalog.pg_namespace n on n.oid = c.relnamespace
		where n.nspname not in ('information_schema', 'pg_catalog') and c.relkind = 'v'
		and not exists (select 1 from pg_catalog.pg_depend d where c.oid = d.objid and d.deptype = 'e')
	`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var sb strings.Builder
	for rows.Next() {
		var schema, name, definition string
		if err := rows.Scan(&schema, &name, &definition); err != nil {
			return "", err
		}
		definition = strings.TrimSpace(strings.ReplaceAll(definition, "\n", " "))
		definition = strings.TrimSuffix(definition, ";")
		fmt.Fprintf(&sb, "CREATE VIEW %q.%q AS %s;\n", schema, name, definition)
	}
	return sb.String(), rows.Err()
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) Execute(sql string) error {
	_, err := t.tx.Exec(sql)
	return err
}

func (t *txn) Commit() error {
	return t.tx.Commit()
}
