package mysql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/schemadrift/schemadrift/dialect"
)

// Adapter is a live MySQL connection. SHOW FULL TABLES + SHOW CREATE TABLE
// is MySQL's own canonical DDL dump, so introspection here is far thinner
// than Postgres's information_schema assembly.
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
	return []string{a.config.Database}
}

func (a *Adapter) ServerVersion() (dialect.Version, error) {
	var version string
	if err := a.db.QueryRow("SELECT VERSION()").Scan(&version); err != nil {
		return dialect.Version{}, err
	}
	return parseServerVersion(version), nil
}

func parseServerVersion(raw string) dialect.Version {
	core, _, _ := strings.Cut(raw, "-")
	fields := strings.Split(core, ".")
	var parts [3]uint16
	for i := 0; i < len(fields) && i < 3; i++ {
		if n, err := strconv.Atoi(fields[i]); err == nil {
			parts[i] = uint16(n)
		}
	}
	return dialect.Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

func (a *Adapter) ExportSchema() (string, error) {
	tables, err := a.tableNames()
	if err != nil {
		return "", err
	}

	ddls, err := dialect.ConcurrentMap(tables, 8, func(table string) (string, error) {
		createSQL, err := a.showCreateTable(table)
		if err != nil {
			return "", fmt.Errorf("mysql: export table %q: %w", table, err)
		}
		return createSQL, nil
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, createSQL := range ddls {
		sb.WriteString(createSQL)
		sb.WriteString(";\n")
	}

	viewSQL, err := a.exportViews()
	if err != nil {
		return "", err
	}
	sb.WriteString(viewSQL)

	return sb.String(), nil
}

func (a *Adapter) tableNames() ([]string, error) {
	rows, err := a.db.Query("SHOW FULL TABLES WHERE Table_Type != 'VIEW'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (a *Adapter) showCreateTable(table string) (string, error) {
	var name, createSQL string
	quoted := "`" + strings.ReplaceAll(table, "`", "``") + "`"
	if err := a.db.QueryRow("SHOW CREATE TABLE " + quoted).Scan(&name, &createSQL); err != nil {
		return "", err
	}
	return createSQL, nil
}

func (a *Adapter) exportViews() (string, error) {
	rows, err := a.db.Query("SHOW FULL TABLES WHERE Table_Type = 'VIEW'")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return "", err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, name := range names {
		var definition string
		err := a.db.QueryRow(
			"SELECT VIEW_DEFINITION FROM INFORMATION_SCHEMA.VIEWS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
			a.config.Database, name,
		).Scan(&definition)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "CREATE VIEW `%s` AS %s;\n", name, definition)
	}
	return sb.String(), nil
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
