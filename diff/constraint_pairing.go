package diff

import "github.com/schemadrift/schemadrift/ir"

// checkDropAddKeysMatch reports whether a DropCheck's name and an AddCheck's
// check target the same (table, name) pair — used to decide whether a
// changed check constraint should be paired as drop-then-add in enable_drop
// mode, or (outside enable_drop) whether it's safe to swap it in place even
// though a bare rename would otherwise be suppressed.
func checkDropAddKeysMatch(table ir.QualifiedName, droppedName ir.Ident, addedCheck ir.CheckConstraint) bool {
	if addedCheck.Name == nil {
		return false
	}
	return ir.StructuralEqual(table, table) && identEqualStrict(droppedName, *addedCheck.Name)
}

func identEqualStrict(a, b ir.Ident) bool {
	return a.Value == b.Value && a.Quoted == b.Quoted
}
