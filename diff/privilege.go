package diff

import (
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/ir"
)

var orderedPrivilegeOps = [13]ir.PrivilegeOp{
	ir.PrivilegeSelect, ir.PrivilegeInsert, ir.PrivilegeUpdate, ir.PrivilegeDelete,
	ir.PrivilegeTruncate, ir.PrivilegeReferences, ir.PrivilegeTrigger, ir.PrivilegeUsage,
	ir.PrivilegeCreate, ir.PrivilegeConnect, ir.PrivilegeTemporary, ir.PrivilegeExecute,
	ir.PrivilegeAll,
}

type privilegeOpsDiff struct {
	Added, Removed, Shared []ir.PrivilegeOp
}

func comparePrivileges(desired, current []ir.Privilege, config diffcfg.DiffConfig, ops *[]DiffOp) {
	matchedCurrent := make([]bool, len(current))

	for _, desiredPrivilege := range desired {
		if idx, currentPrivilege, ok := findMatchingCurrentPrivilege(desiredPrivilege, current, matchedCurrent); ok {
			matchedCurrent[idx] = true
			pushPrivilegeChanges(desiredPrivilege, currentPrivilege, config, ops)
			continue
		}

		grantOps := diffPrivilegeOps(desiredPrivilege.Operations, nil).Added
		pushGrant(ops, desiredPrivilege, grantOps, desiredPrivilege.WithGrantOption)
	}

	if config.EnableDrop {
		for index, currentPrivilege := range current {
			if matchedCurrent[index] {
				continue
			}
			revokeOps := diffPrivilegeOps(nil, currentPrivilege.Operations).Removed
			pushRevoke(ops, currentPrivilege, revokeOps, false)
		}
	}
}

func diffPrivilegeOps(desiredOps, currentOps []ir.PrivilegeOp) privilegeOpsDiff {
	desiredSet := privilegeOpSet(desiredOps)
	currentSet := privilegeOpSet(currentOps)

	var d privilegeOpsDiff
	for i, op := range orderedPrivilegeOps {
		switch {
		case desiredSet[i] && !currentSet[i]:
			d.Added = append(d.Added, op)
		case !desiredSet[i] && currentSet[i]:
			d.Removed = append(d.Removed, op)
		case desiredSet[i] && currentSet[i]:
			d.Shared = append(d.Shared, op)
		}
	}
	return d
}

func pushPrivilegeChanges(desired, current ir.Privilege, config diffcfg.DiffConfig, ops *[]DiffOp) {
	opDiff := diffPrivilegeOps(desired.Operations, current.Operations)

	if config.EnableDrop {
		pushRevoke(ops, current, opDiff.Removed, false)
	}

	pushGrant(ops, desired, opDiff.Added, desired.WithGrantOption)

	if len(opDiff.Shared) > 0 && desired.WithGrantOption != current.WithGrantOption {
		if desired.WithGrantOption {
			pushGrant(ops, desired, opDiff.Shared, true)
		} else if config.EnableDrop {
			pushRevoke(ops, current, opDiff.Shared, true)
		}
	}
}

func findMatchingCurrentPrivilege(desired ir.Privilege, current []ir.Privilege, matchedCurrent []bool) (int, ir.Privilege, bool) {
	for i, currentPrivilege := range current {
		if matchedCurrent[i] {
			continue
		}
		if privilegeKeyMatches(desired, currentPrivilege) {
			return i, currentPrivilege, true
		}
	}
	return 0, ir.Privilege{}, false
}

func privilegeKeyMatches(left, right ir.Privilege) bool {
	return ir.StructuralEqual(left.On, right.On) && identEqualStrict(left.Grantee, right.Grantee)
}

func pushGrant(ops *[]DiffOp, base ir.Privilege, operations []ir.PrivilegeOp, withGrantOption bool) {
	if len(operations) == 0 {
		return
	}
	*ops = append(*ops, GrantOp{Privilege: ir.Privilege{
		Operations:      operations,
		On:              base.On,
		Grantee:         base.Grantee,
		WithGrantOption: withGrantOption,
	}})
}

func pushRevoke(ops *[]DiffOp, base ir.Privilege, operations []ir.PrivilegeOp, withGrantOption bool) {
	if len(operations) == 0 {
		return
	}
	*ops = append(*ops, RevokeOp{Privilege: ir.Privilege{
		Operations:      operations,
		On:              base.On,
		Grantee:         base.Grantee,
		WithGrantOption: withGrantOption,
	}})
}

func privilegeOpSet(operations []ir.PrivilegeOp) [13]bool {
	var set [13]bool
	for _, op := range operations {
		set[privilegeOpIndex(op)] = true
	}
	return set
}

func privilegeOpIndex(op ir.PrivilegeOp) int {
	switch op {
	case ir.PrivilegeSelect:
		return 0
	case ir.PrivilegeInsert:
		return 1
	case ir.PrivilegeUpdate:
		return 2
	case ir.PrivilegeDelete:
		return 3
	case ir.PrivilegeTruncate:
		return 4
	case ir.PrivilegeReferences:
		return 5
	case ir.PrivilegeTrigger:
		return 6
	case ir.PrivilegeUsage:
		return 7
	case ir.PrivilegeCreate:
		return 8
	case ir.PrivilegeConnect:
		return 9
	case ir.PrivilegeTemporary:
		return 10
	case ir.PrivilegeExecute:
		return 11
	case ir.PrivilegeAll:
		return 12
	default:
		panic("diff: unreachable PrivilegeOp variant")
	}
}
