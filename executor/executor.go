// Package executor runs an ordered Statement sequence against a live
// DatabaseAdapter, grouping consecutive transactional statements into a
// single database transaction and stopping at the first failure with
// enough context (which statement, how many already succeeded) for the
// caller to decide whether to retry or roll the target database back
// manually.
package executor

import (
	"errors"

	"github.com/schemadrift/schemadrift/corerr"
	"github.com/schemadrift/schemadrift/dialect"
)

// Executor drives one adapter through a plan.
type Executor struct {
	adapter dialect.DatabaseAdapter
}

func New(adapter dialect.DatabaseAdapter) *Executor {
	return &Executor{adapter: adapter}
}

// ExecutePlan runs every statement in order, stopping and returning a
// *corerr.ExecutionError at the first failure.
func (e *Executor) ExecutePlan(statements []dialect.Statement) error {
	index := 0
	executedStatements := 0
	for index < len(statements) {
		next, err := e.executeNextGroup(statements, index, &executedStatements)
		if err != nil {
			return err
		}
		index = next
	}
	return nil
}

func (e *Executor) executeNextGroup(statements []dialect.Statement, start int, executedStatements *int) (int, error) {
	switch stmt := statements[start].(type) {
	case dialect.SQLStatement:
		if stmt.Transactional {
			return e.executeTransactionalGroup(statements, start, stmt.SQL, stmt.Context, executedStatements)
		}
		return e.executeNonTransactionalStatement(start, stmt.SQL, stmt.Context, executedStatements)
	case dialect.BatchBoundaryStatement:
		return start + 1, nil
	default:
		panic("executor: unreachable Statement variant")
	}
}

func (e *Executor) executeTransactionalGroup(
	statements []dialect.Statement,
	start int,
	startSQL string,
	startContext corerr.StatementContext,
	executedStatements *int,
) (int, error) {
	tx, err := e.adapter.Begin()
	if err != nil {
		return 0, buildStatementFailed(start, startSQL, startContext, *executedStatements, err)
	}

	cursor := start
	lastSQL := startSQL
	lastStatementIndex := start
	lastContext := startContext

loop:
	for cursor < len(statements) {
		switch stmt := statements[cursor].(type) {
		case dialect.SQLStatement:
			if !stmt.Transactional {
				break loop
			}
			if err := tx.Execute(stmt.SQL); err != nil {
				return 0, buildStatementFailed(cursor, stmt.SQL, stmt.Context, *executedStatements, err)
			}
			*executedStatements++
			lastStatementIndex = cursor
			lastSQL = stmt.SQL
			lastContext = stmt.Context
			cursor++
		case dialect.BatchBoundaryStatement:
			cursor++
		default:
			panic("executor: unreachable Statement variant")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, buildStatementFailed(lastStatementIndex, lastSQL, lastContext, *executedStatements, err)
	}
	return cursor, nil
}

func (e *Executor) executeNonTransactionalStatement(
	start int,
	sql string,
	context corerr.StatementContext,
	executedStatements *int,
) (int, error) {
	if err := e.adapter.Execute(sql); err != nil {
		return 0, buildStatementFailed(start, sql, context, *executedStatements, err)
	}
	*executedStatements++
	return start + 1, nil
}

func buildStatementFailed(statementIndex int, sql string, context corerr.StatementContext, executedStatements int, source error) error {
	sourceLocation := inheritedSourceLocation(source)
	if context == nil {
		context = inheritedStatementContext(source)
	}

	return &corerr.ExecutionError{
		StatementIndex:     statementIndex,
		SQL:                sql,
		ExecutedStatements: executedStatements,
		SourceLocation:     sourceLocation,
		StatementContext:   context,
		Err:                source,
	}
}

func inheritedSourceLocation(source error) *corerr.SourceLocation {
	var execErr *corerr.ExecutionError
	if errors.As(source, &execErr) {
		return execErr.SourceLocation
	}
	return nil
}

func inheritedStatementContext(source error) corerr.StatementContext {
	var execErr *corerr.ExecutionError
	if errors.As(source, &execErr) {
		return execErr.StatementContext
	}
	return nil
}
