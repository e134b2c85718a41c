package tableapi

import (
	"testing"

	"github.com/Kellerman81/go_table_editor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewTableConfigDefaults verifies primary key and page size fallbacks
func TestNewTableConfigDefaults(t *testing.T) {
	widget := NewTableConfig(config.TableWidgetConfig{Name: "plain", Table: "plain"})

	assert.Equal(t, "id", widget.PrimaryKey)
	assert.Equal(t, 10, widget.PerPage)
	assert.Empty(t, widget.BulkActions)
}

// TestNewTableConfigCompilation verifies normalization of joins, operators
// and comparators from the raw config block
func TestNewTableConfigCompilation(t *testing.T) {
	widget := NewTableConfig(config.TableWidgetConfig{
		Name:       "users",
		Table:      "users u",
		PrimaryKey: "u.id",
		BulkDelete: true,
		Joins:      []config.TableJoinConfig{{Type: "left", Table: "departments d", Condition: "d.id = u.department_id"}},
		Where: []config.TableWhereConfig{
			{Operator: "or", Conditions: []config.TableConditionConfig{
				{Field: "u.tenant", Comparator: "in", Value: "default, demo"},
			}},
			{Operator: "bogus", Conditions: []config.TableConditionConfig{
				{Field: "u.active", Comparator: "=", Value: "1"},
			}},
		},
	})

	require.Len(t, widget.Joins, 1)
	assert.Equal(t, "LEFT", widget.Joins[0].Type)

	require.Len(t, widget.Scope, 2)
	assert.Equal(t, "OR", widget.Scope[0].Operator)
	assert.Equal(t, "IN", widget.Scope[0].Conditions[0].Comparator)
	assert.Equal(t, []interface{}{"default", "demo"}, widget.Scope[0].Conditions[0].Value)
	assert.Equal(t, "AND", widget.Scope[1].Operator)

	action, ok := widget.BulkActions["delete"]
	require.True(t, ok)
	assert.Nil(t, action.Handler)
}

// TestNewTableConfigUpload verifies the size limit conversion to bytes
func TestNewTableConfigUpload(t *testing.T) {
	widget := NewTableConfig(config.TableWidgetConfig{
		Name:  "users",
		Table: "users",
		Upload: config.UploadConfig{
			Path:              "./uploads",
			AllowedExtensions: []string{"png"},
			MaxFileSizeMB:     2,
		},
	})

	assert.Equal(t, int64(2*1024*1024), widget.Upload.MaxBytes)
	assert.Equal(t, "./uploads", widget.Upload.Dir)
}

// TestIsInlineEditable verifies exact and unqualified allow-list matching
func TestIsInlineEditable(t *testing.T) {
	widget := &TableConfig{InlineEditColumns: []string{"name", "u.active"}}

	assert.True(t, widget.IsInlineEditable("name"))
	assert.True(t, widget.IsInlineEditable("u.name"))
	assert.True(t, widget.IsInlineEditable("active"))
	assert.False(t, widget.IsInlineEditable("email"))
}

// TestIsSortable verifies sorting requires an exact allow-list match
func TestIsSortable(t *testing.T) {
	widget := &TableConfig{SortableColumns: []string{"u.name"}}

	assert.True(t, widget.IsSortable("u.name"))
	assert.False(t, widget.IsSortable("name"))
	assert.False(t, widget.IsSortable("u.email"))
}
