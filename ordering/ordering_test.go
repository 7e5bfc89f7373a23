package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/ir"
)

func TestSortDiffOpsOrdersCreateTableBeforeAddIndex(t *testing.T) {
	ops := []diff.DiffOp{
		diff.AddIndexOp{Index: ir.IndexDef{Owner: ir.IndexOwner{Name: ir.NewQualifiedName(nil, ir.NewIdent("users"))}}},
		diff.CreateTableOp{Table: ir.NewTable("users")},
	}
	sorted := SortDiffOps(ops)

	_, isCreateTable := sorted[0].(diff.CreateTableOp)
	assert.True(t, isCreateTable, "expected CreateTableOp first")
	_, isAddIndex := sorted[1].(diff.AddIndexOp)
	assert.True(t, isAddIndex, "expected AddIndexOp second")
}

func TestSortDiffOpsDropsRunBeforeCreates(t *testing.T) {
	ops := []diff.DiffOp{
		diff.CreateTableOp{Table: ir.NewTable("new_table")},
		diff.DropTableOp{Name: ir.NewQualifiedName(nil, ir.NewIdent("old_table"))},
	}
	sorted := SortDiffOps(ops)
	_, isDrop := sorted[0].(diff.DropTableOp)
	assert.True(t, isDrop, "drops should run before creates")
}

func TestSortDiffOpsDropForeignKeyBeforeDropTable(t *testing.T) {
	ops := []diff.DiffOp{
		diff.DropTableOp{Name: ir.NewQualifiedName(nil, ir.NewIdent("orders"))},
		diff.DropForeignKeyOp{Table: ir.NewQualifiedName(nil, ir.NewIdent("orders")), Name: ir.NewIdent("fk_orders_users")},
	}
	sorted := SortDiffOps(ops)
	_, isDropFK := sorted[0].(diff.DropForeignKeyOp)
	assert.True(t, isDropFK, "foreign keys must be dropped before their table")
}

func TestSortDiffOpsIsStableForSamePriorityUnrelatedTables(t *testing.T) {
	ops := []diff.DiffOp{
		diff.CreateTableOp{Table: ir.NewTable("b_table")},
		diff.CreateTableOp{Table: ir.NewTable("a_table")},
	}
	sorted := SortDiffOps(ops)
	first := sorted[0].(diff.CreateTableOp).Table.Name.Name.Value
	second := sorted[1].(diff.CreateTableOp).Table.Name.Name.Value
	assert.Equal(t, []string{"b_table", "a_table"}, []string{first, second})
}
