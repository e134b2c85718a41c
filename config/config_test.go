package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleToml = `
[general]
LogLevel = "debug"
webport = "8080"

[[tables]]
name = "users"
table = "users u"
primary_key = "u.id"
per_page = 25
enable_bulk_actions = true
bulk_delete = true
sortable_columns = ["u.name"]
inline_edit_columns = ["name"]

  [[tables.columns]]
  name = "u.id"
  label = "ID"

  [[tables.joins]]
  type = "left"
  table = "departments d"
  condition = "d.id = u.department_id"

  [[tables.where]]
  operator = "and"

    [[tables.where.conditions]]
    field = "u.tenant"
    comparator = "="
    value = "default"

  [tables.column_types]
  email = "email"

  [tables.upload]
  path = "./uploads"
  allowed_extensions = ["png"]
  max_file_size_mb = 5
`

// TestLoadCfg verifies toml parsing into the runtime configuration
func TestLoadCfg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleToml), 0644))

	_, err := LoadCfg(path)
	require.NoError(t, err)

	general := ConfigGetGeneral()
	assert.Equal(t, "debug", general.LogLevel)
	assert.Equal(t, "8080", general.WebPort)
	// unset values fall back to defaults
	assert.Equal(t, "./databases/data.db", general.DBPath)

	cfg := ConfigGet()
	require.Len(t, cfg.Tables, 1)
	table := cfg.Tables[0]
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, "users u", table.Table)
	assert.Equal(t, "u.id", table.PrimaryKey)
	assert.Equal(t, 25, table.PerPage)
	assert.True(t, table.EnableBulkActions)
	assert.True(t, table.BulkDelete)
	require.Len(t, table.Joins, 1)
	assert.Equal(t, "departments d", table.Joins[0].Table)
	require.Len(t, table.Where, 1)
	assert.Equal(t, "default", table.Where[0].Conditions[0].Value)
	assert.Equal(t, "email", table.ColumnTypes["email"])
	assert.Equal(t, int64(5), int64(table.Upload.MaxFileSizeMB))
}

// TestLoadCfgMissingFile verifies a readable error for an absent config
func TestLoadCfgMissingFile(t *testing.T) {
	_, err := LoadCfg(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
