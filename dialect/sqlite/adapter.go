package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/dialect"
)

// Adapter is a live SQLite connection. SQLite's sqlite_master catalog
// already stores each object's original CREATE statement verbatim, so
// ExportSchema is a straight read rather than reassembled introspection.
type Adapter struct {
	db *sql.DB
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
	return []string{"main"}
}

func (a *Adapter) ServerVersion() (dialect.Version, error) {
	var version string
	if err := a.db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return dialect.Version{}, err
	}
	var major, minor, patch uint16
	fmt.Sscanf(version, "%d.%d.%d", &major, &minor, &patch)
	return dialect.Version{Major: major, Minor: minor, Patch: patch}, nil
}

func (a *Adapter) ExportSchema() (string, error) {
	rows, err := a.db.Query(`
		select sql from sqlite_master
		where type in ('table', 'view', 'index')
		and tbl_name not like 'sqlite_%'
		and sql is not null
		order by case type when 'table' then 0 when 'view' then 1 else 2 end
	`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var sb strings.Builder
	for rows.Next() {
		var sql string
		if err := rows.Scan(&sql); err != nil {
			return "", err
		}
		sb.WriteString(sql)
		sb.WriteString(";\n")
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
