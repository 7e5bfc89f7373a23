// Package plan turns an unordered slice of diff operations into an
// executable DdlPlan: ordering.SortDiffOps does the actual sequencing, this
// package just owns the resulting value type.
package plan

import (
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/ordering"
)

// DdlPlan is a diff, ordered for execution.
type DdlPlan struct {
	orderedOps []diff.DiffOp
}

func NewDdlPlan(orderedOps []diff.DiffOp) DdlPlan {
	return DdlPlan{orderedOps: orderedOps}
}

func (p DdlPlan) Ops() []diff.DiffOp {
	return p.orderedOps
}

// DdlPlanner builds a DdlPlan from a diff's raw operations.
type DdlPlanner struct{}

func NewDdlPlanner() DdlPlanner {
	return DdlPlanner{}
}

func (DdlPlanner) Build(ops []diff.DiffOp) DdlPlan {
	return NewDdlPlan(ordering.SortDiffOps(ops))
}

// BuildDdlPlan is the one-shot convenience entry point used by callers that
// don't need to reuse a planner.
func BuildDdlPlan(ops []diff.DiffOp) DdlPlan {
	return NewDdlPlanner().Build(ops)
}
