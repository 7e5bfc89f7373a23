// Package diffcfg holds the diff engine's configuration contract: whether
// drops are enabled, the schema search path used for unqualified-name
// resolution, and the pluggable equivalence policy dialects use to decide
// when two syntactically different expressions/types should be treated as
// unchanged.
package diffcfg

import (
	"fmt"

	"github.com/schemadrift/schemadrift/ir"
)

// EquivalencePolicy lets a dialect decide that two expressions or two
// custom type names are equivalent even though they are not textually
// identical (e.g. a policy folding `'t'::boolean` and `true`).
type EquivalencePolicy interface {
	IsEquivalentExpr(left, right ir.Expr) bool
	IsEquivalentCustomType(left, right string) bool
}

// DefaultEquivalencePolicy falls back to structural equality for
// expressions and case-sensitive string equality for custom type names.
type DefaultEquivalencePolicy struct{}

func (DefaultEquivalencePolicy) IsEquivalentExpr(left, right ir.Expr) bool {
	return ir.StructuralEqual(left, right)
}

func (DefaultEquivalencePolicy) IsEquivalentCustomType(left, right string) bool {
	return left == right
}

var defaultEquivalencePolicy EquivalencePolicy = DefaultEquivalencePolicy{}

// DiffConfig carries everything the diff engine needs beyond the two
// object sets being compared.
type DiffConfig struct {
	EnableDrop        bool
	SchemaSearchPath  []string
	EquivalencePolicy EquivalencePolicy
}

func NewDiffConfig(enableDrop bool, searchPath []string, policy EquivalencePolicy) DiffConfig {
	if policy == nil {
		policy = defaultEquivalencePolicy
	}
	return DiffConfig{EnableDrop: enableDrop, SchemaSearchPath: searchPath, EquivalencePolicy: policy}
}

// Clone returns a shallow copy; EnableDrop is the only field the diff
// engine needs to flip to compute enable_drop diagnostics (see
// diff.DiffWithDiagnostics), so a value-type copy is sufficient.
func (c DiffConfig) Clone() DiffConfig {
	return c
}

// EquivalencePolicyContractError reports a policy implementation that
// violates its own contract (failing reflexivity: x must be equivalent to
// itself).
type EquivalencePolicyContractError struct {
	Description string
}

func (e *EquivalencePolicyContractError) Error() string {
	return fmt.Sprintf("equivalence policy contract violated: %s", e.Description)
}

// VerifyEquivalencePolicyContract checks reflexivity of a policy against a
// sample expression and type name, returning an error if the policy isn't
// even equivalent to itself.
func VerifyEquivalencePolicyContract(policy EquivalencePolicy, sampleExpr ir.Expr, sampleType string) error {
	if !policy.IsEquivalentExpr(sampleExpr, sampleExpr) {
		return &EquivalencePolicyContractError{Description: "IsEquivalentExpr is not reflexive"}
	}
	if !policy.IsEquivalentCustomType(sampleType, sampleType) {
		return &EquivalencePolicyContractError{Description: "IsEquivalentCustomType is not reflexive"}
	}
	return nil
}

// ExprsEquivalent compares two optional expressions under policy, treating
// two nils as equivalent and a nil/non-nil pair as not.
func ExprsEquivalent(policy EquivalencePolicy, left, right ir.Expr) bool {
	if left == nil && right == nil {
		return true
	}
	if left == nil || right == nil {
		return false
	}
	return policy.IsEquivalentExpr(left, right)
}

// CustomTypesEquivalent compares two custom type names under policy.
func CustomTypesEquivalent(policy EquivalencePolicy, left, right string) bool {
	return policy.IsEquivalentCustomType(left, right)
}

// StrictOr returns true if either operand is true — used by dialects that
// want "equivalent if either the structural check or the policy check
// passes" rather than requiring the policy to subsume structural equality.
func StrictOr(a, b bool) bool {
	return a || b
}
