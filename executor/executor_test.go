package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/dialect"
)

type fakeTx struct {
	adapter   *fakeAdapter
	committed bool
}

func (tx *fakeTx) Execute(sql string) error {
	if err := tx.adapter.failOn[sql]; err != nil {
		return err
	}
	tx.adapter.executed = append(tx.adapter.executed, sql)
	return nil
}

func (tx *fakeTx) Commit() error {
	tx.committed = true
	tx.adapter.commits++
	return nil
}

type fakeAdapter struct {
	executed []string
	failOn   map[string]error
	commits  int
}

func (a *fakeAdapter) ExportSchema() (string, error) { return "", nil }

func (a *fakeAdapter) Execute(sql string) error {
	if err := a.failOn[sql]; err != nil {
		return err
	}
	a.executed = append(a.executed, sql)
	return nil
}

func (a *fakeAdapter) Begin() (dialect.Transaction, error) {
	return &fakeTx{adapter: a}, nil
}

func (a *fakeAdapter) SchemaSearchPath() []string        { return nil }
func (a *fakeAdapter) ServerVersion() (dialect.Version, error) { return dialect.Version{}, nil }

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{failOn: map[string]error{}}
}

func TestExecutePlanRunsTransactionalStatementsInOneTransaction(t *testing.T) {
	adapter := newFakeAdapter()
	e := New(adapter)

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE TABLE a (id int);", Transactional: true},
		dialect.SQLStatement{SQL: "CREATE TABLE b (id int);", Transactional: true},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a (id int);", "CREATE TABLE b (id int);"}, adapter.executed)
	assert.Equal(t, 1, adapter.commits)
}

func TestExecutePlanRunsNonTransactionalStatementWithoutBegin(t *testing.T) {
	adapter := newFakeAdapter()
	e := New(adapter)

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE INDEX CONCURRENTLY idx ON t (id);", Transactional: false},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE INDEX CONCURRENTLY idx ON t (id);"}, adapter.executed)
	assert.Equal(t, 0, adapter.commits)
}

func TestExecutePlanStartsNewTransactionAfterNonTransactionalStatement(t *testing.T) {
	adapter := newFakeAdapter()
	e := New(adapter)

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE INDEX CONCURRENTLY idx ON t (id);", Transactional: false},
		dialect.SQLStatement{SQL: "CREATE TABLE a (id int);", Transactional: true},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, adapter.commits)
}

func TestExecutePlanTreatsBatchBoundaryAsNoop(t *testing.T) {
	adapter := newFakeAdapter()
	e := New(adapter)

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE TABLE a (id int);", Transactional: true},
		dialect.BatchBoundaryStatement{},
		dialect.SQLStatement{SQL: "CREATE TABLE b (id int);", Transactional: true},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a (id int);", "CREATE TABLE b (id int);"}, adapter.executed)
}

func TestExecutePlanStopsAtFirstFailureWithExecutedCount(t *testing.T) {
	boom := errors.New("constraint violation")
	adapter := newFakeAdapter()
	adapter.failOn["CREATE TABLE b (id int);"] = boom
	e := New(adapter)

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "CREATE TABLE a (id int);", Transactional: true},
		dialect.SQLStatement{SQL: "CREATE TABLE b (id int);", Transactional: true},
		dialect.SQLStatement{SQL: "CREATE TABLE c (id int);", Transactional: true},
	})

	require.Error(t, err)
	var execErr *corerr.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "CREATE TABLE b (id int);", execErr.SQL)
	assert.Equal(t, 1, execErr.ExecutedStatements)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, adapter.commits, "transaction should not commit when a statement fails")
}

func TestExecutePlanPropagatesStatementContextOnFailure(t *testing.T) {
	boom := errors.New("cannot drop column referenced by a generated column")
	adapter := newFakeAdapter()
	adapter.failOn["ALTER TABLE t DROP COLUMN old;"] = boom
	e := New(adapter)

	rebuildCtx := corerr.SqliteTableRebuildContext{Step: corerr.SqliteRebuildDropOldTable}

	err := e.ExecutePlan([]dialect.Statement{
		dialect.SQLStatement{SQL: "ALTER TABLE t DROP COLUMN old;", Transactional: true, Context: rebuildCtx},
	})

	require.Error(t, err)
	var execErr *corerr.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, rebuildCtx, execErr.StatementContext)
}
