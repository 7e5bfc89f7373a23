package diffcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemadrift/schemadrift/ir"
)

func TestParseConfigFileReadsTargetAndSkipTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("target_tables: |\n  users\n  orders\nskip_tables: |\n  audit_log\n"), 0o644))

	config, err := ParseConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, config.TargetTables)
	assert.Equal(t, []string{"audit_log"}, config.SkipTables)
}

func TestParseConfigFileEmptyPathIsNoop(t *testing.T) {
	config, err := ParseConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, config)
}

func TestParseConfigInline(t *testing.T) {
	config, err := ParseConfigInline("target_tables: |\n  users\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, config.TargetTables)
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfigInline("target_tabless: |\n  users\n")
	assert.Error(t, err)
}

func TestMergeConfigsConcatenatesInOrder(t *testing.T) {
	merged := MergeConfigs([]Config{
		{TargetTables: []string{"a"}, SkipTables: []string{"x"}},
		{TargetTables: []string{"b"}, SkipTables: []string{"y"}},
	})
	assert.Equal(t, []string{"a", "b"}, merged.TargetTables)
	assert.Equal(t, []string{"x", "y"}, merged.SkipTables)
}

func TestLoadConfigsMergesFileAndInline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("target_tables: |\n  users\n"), 0o644))

	config, err := LoadConfigs([]string{path}, []string{"target_tables: |\n  orders\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, config.TargetTables)
}

func TestFilterObjectsNoConfigIsIdentity(t *testing.T) {
	objects := []ir.SchemaObject{ir.TableObject{Table: ir.NewTable("users")}}
	assert.Equal(t, objects, FilterObjects(objects, Config{}))
}

func TestFilterObjectsSkipTablesExcludes(t *testing.T) {
	objects := []ir.SchemaObject{
		ir.TableObject{Table: ir.NewTable("users")},
		ir.TableObject{Table: ir.NewTable("audit_log")},
	}
	filtered := FilterObjects(objects, Config{SkipTables: []string{"audit_log"}})
	require.Len(t, filtered, 1)
	assert.Equal(t, "users", filtered[0].(ir.TableObject).Table.Name.String())
}

func TestFilterObjectsTargetTablesIsAllowlist(t *testing.T) {
	objects := []ir.SchemaObject{
		ir.TableObject{Table: ir.NewTable("users")},
		ir.TableObject{Table: ir.NewTable("orders")},
	}
	filtered := FilterObjects(objects, Config{TargetTables: []string{"orders"}})
	require.Len(t, filtered, 1)
	assert.Equal(t, "orders", filtered[0].(ir.TableObject).Table.Name.String())
}

func TestFilterObjectsPassesThroughOwnerlessObjects(t *testing.T) {
	objects := []ir.SchemaObject{
		ir.ExtensionObject{Extension: ir.Extension{Name: ir.NewIdent("pgcrypto")}},
	}
	filtered := FilterObjects(objects, Config{TargetTables: []string{"users"}})
	assert.Equal(t, objects, filtered)
}
