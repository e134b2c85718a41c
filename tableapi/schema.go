package tableapi

import (
	"strings"

	"github.com/Kellerman81/go_table_editor/database"
)

// Semantic column types driving validation and form rendering.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeEmail    = "email"
	TypeDate     = "date"
	TypeDatetime = "datetime"
	TypeBoolean  = "boolean"
	TypeSelect   = "select"
	TypeTextarea = "textarea"
	TypeFile     = "file"
)

type ColumnSchema struct {
	Type     string
	Nullable bool
	Options  []string
}

// Schema maps unqualified column names to their schema entry. Loaded once
// per table at startup, immutable afterwards.
type Schema map[string]ColumnSchema

// LoadSchema introspects the base table and applies the configured semantic
// type and option overrides. Email/select/file columns cannot be detected
// from sqlite affinity and must come in through overrides.
func LoadSchema(table string, typeOverrides map[string]string, optionOverrides map[string][]string) (Schema, error) {
	columns, err := database.TableColumns(table)
	if err != nil {
		return nil, err
	}
	schema := make(Schema, len(columns))
	for _, col := range columns {
		entry := ColumnSchema{
			Type:     detectSemanticType(col.Type),
			Nullable: col.NotNull == 0,
		}
		if override, ok := typeOverrides[col.Name]; ok && override != "" {
			entry.Type = override
		}
		if options, ok := optionOverrides[col.Name]; ok {
			entry.Options = options
			if entry.Type == TypeText {
				entry.Type = TypeSelect
			}
		}
		schema[col.Name] = entry
	}
	return schema, nil
}

func detectSemanticType(sqltype string) string {
	switch strings.ToUpper(sqltype) {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT", "REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL":
		return TypeNumber
	case "BOOLEAN", "BOOL":
		return TypeBoolean
	case "DATE":
		return TypeDate
	case "DATETIME", "TIMESTAMP":
		return TypeDatetime
	default:
		return TypeText
	}
}
