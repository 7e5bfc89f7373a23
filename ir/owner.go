package ir

// String renders a QualifiedName the way most dialects spell it back
// unquoted: "schema.name" when scoped, "name" otherwise. Callers needing
// dialect-specific quoting render Schema/Name themselves.
func (q QualifiedName) String() string {
	if q.Schema != nil {
		return q.Schema.Value + "." + q.Name.Value
	}
	return q.Name.Value
}

// OwningTableName reports the table a schema object logically belongs to,
// for table-scoped filtering (target_tables/skip_tables): the table itself,
// the table an index or trigger is defined against, and for a view or
// materialized view its own name.
// Objects with no such owner (extensions, schemas, standalone comments,
// functions, types, domains, sequences) report ok=false.
func OwningTableName(object SchemaObject) (name string, ok bool) {
	switch o := object.(type) {
	case TableObject:
		return o.Table.Name.String(), true
	case ViewObject:
		return o.View.Name.String(), true
	case MaterializedViewObject:
		return o.MaterializedView.Name.String(), true
	case IndexObject:
		return o.Index.Owner.Name.String(), true
	case TriggerObject:
		return o.Trigger.Table.String(), true
	default:
		return "", false
	}
}
