package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/ir"
)

func TestBuildDdlPlanOrdersOpsByPriority(t *testing.T) {
	ops := []diff.DiffOp{
		diff.AddIndexOp{Index: ir.IndexDef{Owner: ir.IndexOwner{Name: ir.NewQualifiedName(nil, ir.NewIdent("users"))}}},
		diff.CreateTableOp{Table: ir.NewTable("users")},
	}

	p := BuildDdlPlan(ops)

	assert.Len(t, p.Ops(), 2)
	_, isCreateTable := p.Ops()[0].(diff.CreateTableOp)
	assert.True(t, isCreateTable, "CreateTableOp should be ordered before AddIndexOp")
}

func TestDdlPlannerBuildIsEquivalentToBuildDdlPlan(t *testing.T) {
	ops := []diff.DiffOp{
		diff.CreateTableOp{Table: ir.NewTable("a")},
	}

	planner := NewDdlPlanner()
	assert.Equal(t, BuildDdlPlan(ops).Ops(), planner.Build(ops).Ops())
}

func TestNewDdlPlanPreservesGivenOrderWithoutSorting(t *testing.T) {
	ops := []diff.DiffOp{
		diff.AddIndexOp{Index: ir.IndexDef{Owner: ir.IndexOwner{Name: ir.NewQualifiedName(nil, ir.NewIdent("t"))}}},
		diff.CreateTableOp{Table: ir.NewTable("t")},
	}

	p := NewDdlPlan(ops)

	_, isAddIndex := p.Ops()[0].(diff.AddIndexOp)
	assert.True(t, isAddIndex, "NewDdlPlan stores ops verbatim, unlike BuildDdlPlan")
}
