package diff

import "github.com/schemadrift/schemadrift/ir"

// DiffOutcome pairs the ops the engine actually emitted with diagnostics
// about what it would have emitted with enable_drop on.
type DiffOutcome struct {
	Ops         []DiffOp
	Diagnostics DiffDiagnostics
}

// DiffDiagnostics reports every drop/revoke the engine suppressed because
// enable_drop was off.
type DiffDiagnostics struct {
	SkippedOps []SkippedOpDiagnostic
}

func (d DiffDiagnostics) IsEmpty() bool { return len(d.SkippedOps) == 0 }

// diffDiagnosticsFromEnableDrop derives suppressed-op diagnostics by
// comparing the ops a full (enable_drop=true) run would emit against what
// was actually emitted: any op present in the full run but absent from
// the emitted run, that happens to be a droppable kind, was suppressed.
func diffDiagnosticsFromEnableDrop(fullOps, emittedOps []DiffOp) DiffDiagnostics {
	unmatched := make([]DiffOp, len(emittedOps))
	copy(unmatched, emittedOps)

	var skipped []SkippedOpDiagnostic
	for _, op := range fullOps {
		kind, ok := skippedOpKind(op)
		if !ok {
			continue
		}

		matchedAt := -1
		for i, emitted := range unmatched {
			if ir.StructuralEqual(emitted, op) {
				matchedAt = i
				break
			}
		}
		if matchedAt != -1 {
			unmatched = append(unmatched[:matchedAt], unmatched[matchedAt+1:]...)
			continue
		}

		skipped = append(skipped, SkippedOpDiagnostic{Kind: kind, Op: op})
	}

	return DiffDiagnostics{SkippedOps: skipped}
}

type SkippedOpDiagnostic struct {
	Kind SkippedOpKind
	Op   DiffOp
}

type SkippedOpKind int

const (
	SkippedDropTable SkippedOpKind = iota
	SkippedDropView
	SkippedDropMaterializedView
	SkippedDropSequence
	SkippedDropTrigger
	SkippedDropFunction
	SkippedDropType
	SkippedDropDomain
	SkippedDropExtension
	SkippedDropSchema
	SkippedDropPolicy
	SkippedDropColumn
	SkippedDropIndex
	SkippedDropForeignKey
	SkippedDropCheck
	SkippedDropExclusion
	SkippedDropPrimaryKey
	SkippedDropPartition
	SkippedDropComment
	SkippedRevoke
)

// Tag returns the diagnostic's human-readable SQL-verb label, used by the
// renderer for `-- Skipped: DROP TABLE ...` lines.
func (k SkippedOpKind) Tag() string {
	switch k {
	case SkippedDropTable:
		return "DROP TABLE"
	case SkippedDropView:
		return "DROP VIEW"
	case SkippedDropMaterializedView:
		return "DROP MATERIALIZED VIEW"
	case SkippedDropSequence:
		return "DROP SEQUENCE"
	case SkippedDropTrigger:
		return "DROP TRIGGER"
	case SkippedDropFunction:
		return "DROP FUNCTION"
	case SkippedDropType:
		return "DROP TYPE"
	case SkippedDropDomain:
		return "DROP DOMAIN"
	case SkippedDropExtension:
		return "DROP EXTENSION"
	case SkippedDropSchema:
		return "DROP SCHEMA"
	case SkippedDropPolicy:
		return "DROP POLICY"
	case SkippedDropColumn:
		return "DROP COLUMN"
	case SkippedDropIndex:
		return "DROP INDEX"
	case SkippedDropForeignKey:
		return "DROP FOREIGN KEY"
	case SkippedDropCheck:
		return "DROP CHECK"
	case SkippedDropExclusion:
		return "DROP EXCLUSION"
	case SkippedDropPrimaryKey:
		return "DROP PRIMARY KEY"
	case SkippedDropPartition:
		return "DROP PARTITION"
	case SkippedDropComment:
		return "DROP COMMENT"
	case SkippedRevoke:
		return "REVOKE"
	default:
		panic("diff: unreachable SkippedOpKind variant")
	}
}

func skippedOpKind(op DiffOp) (SkippedOpKind, bool) {
	switch op.(type) {
	case DropTableOp:
		return SkippedDropTable, true
	case DropViewOp:
		return SkippedDropView, true
	case DropMaterializedViewOp:
		return SkippedDropMaterializedView, true
	case DropSequenceOp:
		return SkippedDropSequence, true
	case DropTriggerOp:
		return SkippedDropTrigger, true
	case DropFunctionOp:
		return SkippedDropFunction, true
	case DropTypeOp:
		return SkippedDropType, true
	case DropDomainOp:
		return SkippedDropDomain, true
	case DropExtensionOp:
		return SkippedDropExtension, true
	case DropSchemaOp:
		return SkippedDropSchema, true
	case DropPolicyOp:
		return SkippedDropPolicy, true
	case DropColumnOp:
		return SkippedDropColumn, true
	case DropIndexOp:
		return SkippedDropIndex, true
	case DropForeignKeyOp:
		return SkippedDropForeignKey, true
	case DropCheckOp:
		return SkippedDropCheck, true
	case DropExclusionOp:
		return SkippedDropExclusion, true
	case DropPrimaryKeyOp:
		return SkippedDropPrimaryKey, true
	case DropPartitionOp:
		return SkippedDropPartition, true
	case DropCommentOp:
		return SkippedDropComment, true
	case RevokeOp:
		return SkippedRevoke, true
	default:
		return 0, false
	}
}
