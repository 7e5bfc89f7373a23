// Package dialect defines the contract a database backend implements:
// parsing SQL into ir.SchemaObject values, rendering diff.DiffOp batches
// into Statement values, and the connection lifecycle (DatabaseAdapter)
// those statements execute against. Concrete dialects live in the postgres,
// mysql, sqlite and mssql subpackages; dialect/ddl holds the parsing pieces
// shared across them.
package dialect

import (
	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

// Version is a parsed server version, used by dialects that vary DDL syntax
// by engine release (e.g. Postgres's GENERATED ALWAYS AS IDENTITY, present
// only from 10 onward).
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// ConnectionConfig carries the connection parameters common across engines.
// Extra holds engine-specific knobs (sslmode, charset, ...) that don't
// warrant a dedicated field.
type ConnectionConfig struct {
	Host     *string
	Port     *uint16
	User     *string
	Password *string
	Database string
	Socket   *string
	Extra    map[string]string
}

// Statement is one unit of work a DatabaseAdapter executes: either a SQL
// statement (wrapped in a transaction unless Transactional is false, as
// DDL that can't run inside one requires) or a batch separator some
// engines (T-SQL's "GO") use to delimit statements within a single script
// instead of a network round trip.
type Statement interface {
	isStatement()
}

type SQLStatement struct {
	SQL           string
	Transactional bool
	Context       corerr.StatementContext
}

type BatchBoundaryStatement struct{}

func (SQLStatement) isStatement()           {}
func (BatchBoundaryStatement) isStatement() {}

// DatabaseAdapter is a live connection to a schema-bearing database.
type DatabaseAdapter interface {
	ExportSchema() (string, error)
	Execute(sql string) error
	Begin() (Transaction, error)
	SchemaSearchPath() []string
	ServerVersion() (Version, error)
}

// Transaction groups statements that must commit or roll back together.
// Rollback is implicit: a caller that never calls Commit and lets the
// Transaction go out of scope without committing leaves the underlying
// driver transaction open for its *sql.Tx to roll back on Close.
type Transaction interface {
	Execute(sql string) error
	Commit() error
}

// Dialect is the contract for one SQL engine: parse existing schema SQL
// into IR, supply the equivalence rules the diff engine applies, render a
// DiffOp batch as executable Statements, and open live connections.
type Dialect interface {
	Name() string
	Parse(sql string) ([]ir.SchemaObject, error)
	GenerateDDL(ops []diff.DiffOp) ([]Statement, error)
	ToSQL(obj ir.SchemaObject) (string, error)
	Normalize(obj ir.SchemaObject) ir.SchemaObject
	EquivalencePolicy() diffcfg.EquivalencePolicy
	QuoteIdent(id ir.Ident) string
	BatchSeparator() string
	Connect(config ConnectionConfig) (DatabaseAdapter, error)
}
