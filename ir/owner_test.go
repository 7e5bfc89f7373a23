package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedNameStringUnscoped(t *testing.T) {
	assert.Equal(t, "users", NewQualifiedName(nil, NewIdent("users")).String())
}

func TestQualifiedNameStringScoped(t *testing.T) {
	schema := NewIdent("public")
	assert.Equal(t, "public.users", NewQualifiedName(&schema, NewIdent("users")).String())
}

func TestOwningTableNameForTable(t *testing.T) {
	name, ok := OwningTableName(TableObject{Table: NewTable("users")})
	assert.True(t, ok)
	assert.Equal(t, "users", name)
}

func TestOwningTableNameForIndexOwner(t *testing.T) {
	index := IndexDef{Owner: IndexOwner{Kind: IndexOwnerTable, Name: NewQualifiedName(nil, NewIdent("users"))}}
	name, ok := OwningTableName(IndexObject{Index: index})
	assert.True(t, ok)
	assert.Equal(t, "users", name)
}

func TestOwningTableNameForTrigger(t *testing.T) {
	trigger := Trigger{Name: NewQualifiedName(nil, NewIdent("trg")), Table: NewQualifiedName(nil, NewIdent("orders"))}
	name, ok := OwningTableName(TriggerObject{Trigger: trigger})
	assert.True(t, ok)
	assert.Equal(t, "orders", name)
}

func TestOwningTableNameFalseForOwnerlessObjects(t *testing.T) {
	_, ok := OwningTableName(ExtensionObject{Extension: Extension{Name: NewIdent("pgcrypto")}})
	assert.False(t, ok)
}
