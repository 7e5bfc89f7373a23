package mssql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/dialect"
)

// Adapter is a live SQL Server connection. Table DDL is reassembled from
// sys.columns/sys.indexes/sys.foreign_keys rather than dumped verbatim;
// views and triggers carry their own stored definition in sys.sql_modules
// and are copied through as-is.
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
	return []string{"dbo"}
}

func (a *Adapter) ServerVersion() (dialect.Version, error) {
	var version string
	if err := a.db.QueryRow("SELECT CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128))").Scan(&version); err != nil {
		return dialect.Version{}, err
	}
	var major, minor, patch uint16
	fmt.Sscanf(version, "%d.%d.%d", &major, &minor, &patch)
	return dialect.Version{Major: major, Minor: minor, Patch: patch}, nil
}

func (a *Adapter) ExportSchema() (string, error) {
	tables, err := a.tableNames()
	if err != nil {
		return "", err
	}

	var ddls []string
	for _, table := range tables {
		createSQL, err := a.dumpTableDDL(table)
		if err != nil {
			return "", fmt.Errorf("mssql: export table %q: %w", table, err)
		}
		ddls = append(ddls, createSQL)
	}

	views, err := a.views()
	if err != nil {
		return "", err
	}
	ddls = append(ddls, views...)

	triggers, err := a.triggers()
	if err != nil {
		return "", err
	}
	ddls = append(ddls, triggers...)

	return strings.Join(ddls, "\n\n"), nil
}

func (a *Adapter) tableNames() ([]string, error) {
	rows, err := a.db.Query(`select schema_name(schema_id) as table_schema, name from sys.objects where type = 'U'`)
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

func splitTableName(table string) (schema, name string) {
	schema, name, found := strings.Cut(table, ".")
	if !found {
		return "dbo", table
	}
	return schema, name
}

type mssqlColumn struct {
	name       string
	dataType   string
	length     string
	scale      string
	nullable   bool
	identity   *mssqlIdentity
	defaultVal *string
}

type mssqlIdentity struct {
	seed      string
	increment string
}

func (a *Adapter) getColumns(table string) ([]mssqlColumn, error) {
	schema, name := splitTableName(table)
	query := fmt.Sprintf(`SELECT
	c.name,
	tp.name,
	c.max_length,
	c.scale,
	c.is_nullable,
	c.is_identity,
	ic.seed_value,
	ic.increment_value,
	OBJECT_DEFINITION(c.default_object_id)
FROM sys.columns c
JOIN sys.types tp ON c.user_type_id = tp.user_type_id
LEFT JOIN sys.identity_columns ic ON c.object_id = ic.object_id AND ic.column_id = c.column_id
WHERE c.object_id = OBJECT_ID('%s.%s', 'U')
ORDER BY c.column_id`, schema, name)

	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []mssqlColumn
	for rows.Next() {
		var c mssqlColumn
		var seed, increment, defaultVal *string
		if err := rows.Scan(&c.name, &c.dataType, &c.length, &c.scale, &c.nullable, new(bool), &seed, &increment, &defaultVal); err != nil {
			return nil, err
		}
		if seed != nil && increment != nil {
			c.identity = &mssqlIdentity{seed: *seed, increment: *increment}
		}
		c.defaultVal = defaultVal
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

type mssqlIndex struct {
	name      string
	columns   []string
	primary   bool
	unique    bool
	indexType string
}

func (a *Adapter) getIndexes(table string) ([]mssqlIndex, error) {
	schema, name := splitTableName(table)
	query := fmt.Sprintf(`SELECT
	ind.name, ind.is_primary_key, ind.is_unique, ind.type_desc, col.name, ic.key_ordinal
FROM sys.indexes ind
JOIN sys.index_columns ic ON ind.object_id = ic.object_id AND ind.index_id = ic.index_id
JOIN sys.columns col ON ic.object_id = col.object_id AND ic.column_id = col.column_id
WHERE ind.object_id = OBJECT_ID('%s.%s', 'U') AND ind.name IS NOT NULL
ORDER BY ind.index_id, ic.key_ordinal`, schema, name)

	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*mssqlIndex{}
	var order []string
	for rows.Next() {
		var name, indexType, column string
		var isPrimary, isUnique bool
		var ordinal int
		if err := rows.Scan(&name, &isPrimary, &isUnique, &indexType, &column, &ordinal); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &mssqlIndex{name: name, primary: isPrimary, unique: isUnique, indexType: indexType}
			byName[name] = idx
			order = append(order, name)
		}
		idx.columns = append(idx.columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	indexes := make([]mssqlIndex, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, nil
}

func (a *Adapter) getForeignKeys(table string) ([]string, error) {
	schema, name := splitTableName(table)
	query := fmt.Sprintf(`SELECT
	f.name,
	COL_NAME(f.parent_object_id, fc.parent_column_id),
	OBJECT_NAME(f.referenced_object_id),
	COL_NAME(f.referenced_object_id, fc.referenced_column_id),
	f.update_referential_action_desc,
	f.delete_referential_action_desc
FROM sys.foreign_keys f
JOIN sys.foreign_key_columns fc ON f.object_id = fc.constraint_object_id
WHERE f.parent_object_id = OBJECT_ID('%s.%s', 'U')`, schema, name)

	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []string
	for rows.Next() {
		var constraintName, columnName, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&constraintName, &columnName, &refTable, &refColumn, &updateRule, &deleteRule); err != nil {
			return nil, err
		}
		updateRule = strings.ReplaceAll(updateRule, "_", " ")
		deleteRule = strings.ReplaceAll(deleteRule, "_", " ")
		defs = append(defs, fmt.Sprintf(
			"CONSTRAINT [%s] FOREIGN KEY ([%s]) REFERENCES [%s] ([%s]) ON UPDATE %s ON DELETE %s",
			constraintName, columnName, refTable, refColumn, updateRule, deleteRule,
		))
	}
	return defs, rows.Err()
}

func (a *Adapter) dumpTableDDL(table string) (string, error) {
	columns, err := a.getColumns(table)
	if err != nil {
		return "", err
	}
	indexes, err := a.getIndexes(table)
	if err != nil {
		return "", err
	}
	foreignKeys, err := a.getForeignKeys(table)
	if err != nil {
		return "", err
	}
	return buildTableDDL(table, columns, indexes, foreignKeys), nil
}

func buildTableDDL(table string, columns []mssqlColumn, indexes []mssqlIndex, foreignKeys []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (", quoteTable(table))
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "\n    [%s] %s", col.name, col.dataType)
		if !col.nullable {
			sb.WriteString(" NOT NULL")
		}
		if col.defaultVal != nil {
			fmt.Fprintf(&sb, " DEFAULT %s", *col.defaultVal)
		}
		if col.identity != nil {
			fmt.Fprintf(&sb, " IDENTITY(%s,%s)", col.identity.seed, col.identity.increment)
		}
	}
	for _, idx := range indexes {
		if !idx.primary {
			continue
		}
		fmt.Fprintf(&sb, ",\n    CONSTRAINT [%s] PRIMARY KEY (%s)", idx.name, quoteColumnList(idx.columns))
	}
	for _, fk := range foreignKeys {
		fmt.Fprintf(&sb, ",\n    %s", fk)
	}
	sb.WriteString("\n);\n")

	for _, idx := range indexes {
		if idx.primary {
			continue
		}
		sb.WriteString("CREATE")
		if idx.unique {
			sb.WriteString(" UNIQUE")
		}
		fmt.Fprintf(&sb, " INDEX [%s] ON %s (%s);", idx.name, quoteTable(table), quoteColumnList(idx.columns))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func quoteTable(table string) string {
	schema, name := splitTableName(table)
	return fmt.Sprintf("[%s].[%s]", schema, name)
}

func quoteColumnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = "[" + c + "]"
	}
	return strings.Join(quoted, ", ")
}

func (a *Adapter) views() ([]string, error) {
	rows, err := a.db.Query(`SELECT sys.sql_modules.definition
FROM sys.views
JOIN sys.objects ON sys.objects.object_id = sys.views.object_id
JOIN sys.sql_modules ON sys.sql_modules.object_id = sys.objects.object_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var definitions []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		definitions = append(definitions, strings.TrimSpace(definition))
	}
	return definitions, rows.Err()
}

func (a *Adapter) triggers() ([]string, error) {
	rows, err := a.db.Query(`SELECT s.definition
FROM sys.triggers tr
JOIN sys.all_sql_modules s ON s.object_id = tr.object_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var definitions []string
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		definitions = append(definitions, strings.TrimSpace(definition))
	}
	return definitions, rows.Err()
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
