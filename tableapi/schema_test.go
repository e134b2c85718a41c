package tableapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadSchema verifies sqlite affinity detection, nullability and the
// configured type/option overrides
func TestLoadSchema(t *testing.T) {
	setupUsersWidget(t)

	schema, err := LoadSchema("users",
		map[string]string{"email": "email", "avatar": "file", "notes": "textarea"},
		map[string][]string{"status": {"active", "disabled"}})
	require.NoError(t, err)

	assert.Equal(t, TypeNumber, schema["id"].Type)
	assert.Equal(t, TypeText, schema["name"].Type)
	assert.False(t, schema["name"].Nullable)
	assert.Equal(t, TypeBoolean, schema["active"].Type)
	assert.False(t, schema["active"].Nullable)
	assert.Equal(t, TypeDate, schema["birthday"].Type)
	assert.True(t, schema["birthday"].Nullable)
	assert.Equal(t, TypeDatetime, schema["last_login"].Type)
	assert.Equal(t, TypeNumber, schema["department_id"].Type)

	// overrides win over detection
	assert.Equal(t, TypeEmail, schema["email"].Type)
	assert.Equal(t, TypeFile, schema["avatar"].Type)
	assert.Equal(t, TypeTextarea, schema["notes"].Type)

	// an options override promotes a plain text column to a select
	assert.Equal(t, TypeSelect, schema["status"].Type)
	assert.Equal(t, []string{"active", "disabled"}, schema["status"].Options)
}

// TestLoadSchemaWithoutOverrides verifies plain detection
func TestLoadSchemaWithoutOverrides(t *testing.T) {
	setupUsersWidget(t)

	schema, err := LoadSchema("users", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, TypeText, schema["email"].Type)
	assert.Equal(t, TypeText, schema["status"].Type)
	assert.Empty(t, schema["status"].Options)
}

// TestLoadSchemaMissingTable verifies an absent table yields an empty schema,
// so every submitted field gets skipped instead of written blindly
func TestLoadSchemaMissingTable(t *testing.T) {
	setupUsersWidget(t)

	schema, err := LoadSchema("no_such_table", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, schema)
}

// TestDetectSemanticType verifies the affinity mapping table
func TestDetectSemanticType(t *testing.T) {
	assert.Equal(t, TypeNumber, detectSemanticType("INTEGER"))
	assert.Equal(t, TypeNumber, detectSemanticType("bigint"))
	assert.Equal(t, TypeNumber, detectSemanticType("REAL"))
	assert.Equal(t, TypeBoolean, detectSemanticType("BOOLEAN"))
	assert.Equal(t, TypeDate, detectSemanticType("DATE"))
	assert.Equal(t, TypeDatetime, detectSemanticType("DATETIME"))
	assert.Equal(t, TypeDatetime, detectSemanticType("TIMESTAMP"))
	assert.Equal(t, TypeText, detectSemanticType("TEXT"))
	assert.Equal(t, TypeText, detectSemanticType("VARCHAR(50)"))
}
