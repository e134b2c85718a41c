package tableapi

import (
	"strings"

	"github.com/Kellerman81/go_table_editor/config"
	"github.com/jmoiron/sqlx"
)

type Column struct {
	Name  string
	Label string
}

type Join struct {
	Type      string // INNER, LEFT, RIGHT, FULL
	Table     string
	Condition string // trusted configuration, never request input
}

type Condition struct {
	Field      string
	Comparator string // =, !=, <, >, <=, >=, LIKE, NOT LIKE, IN, NOT IN
	Value      interface{}
}

// ConditionGroup joins its conditions with Operator (AND/OR). Groups are
// always AND-combined with each other and with request-derived filters so
// configured row scoping cannot be bypassed by search.
type ConditionGroup struct {
	Operator   string
	Conditions []Condition
}

// BulkHandler runs a registered bulk action against the selected ids.
type BulkHandler interface {
	Execute(ids []int64, db *sqlx.DB, table string) (bool, error)
}

type BulkAction struct {
	Label   string
	Confirm string
	Handler BulkHandler // nil means the built-in scoped bulk delete
}

// RowHandler runs a registered per-row action. The row snapshot is whatever
// the client echoed back - advisory, not authoritative.
type RowHandler interface {
	Execute(id int64, row map[string]interface{}, db *sqlx.DB, table string) (bool, error)
}

type ActionGroup struct {
	Name    string
	Actions map[string]RowHandler
}

type UploadPolicy struct {
	Dir               string
	AllowedExtensions []string
	MaxBytes          int64
}

// TableConfig is the declarative table definition. Immutable once built.
type TableConfig struct {
	Name              string
	Table             string
	PrimaryKey        string // may be qualified alias.column
	Columns           []Column
	Joins             []Join
	SortableColumns   []string
	InlineEditColumns []string
	Scope             []ConditionGroup
	BulkActions       map[string]BulkAction
	ActionGroups      []ActionGroup
	EnableBulkActions bool
	PerPage           int
	Upload            UploadPolicy
}

// BaseTable returns the unaliased physical table name, used for all writes
// even when SELECTs alias the table for join readability.
func (c *TableConfig) BaseTable() string {
	if idx := strings.IndexByte(c.Table, ' '); idx != -1 {
		return c.Table[:idx]
	}
	return c.Table
}

// PrimaryKeyColumn resolves the primary key to its unqualified column name.
func (c *TableConfig) PrimaryKeyColumn() string {
	return unqualify(c.PrimaryKey)
}

func (c *TableConfig) IsSortable(column string) bool {
	for _, allowed := range c.SortableColumns {
		if allowed == column {
			return true
		}
	}
	return false
}

func (c *TableConfig) IsInlineEditable(column string) bool {
	for _, allowed := range c.InlineEditColumns {
		if allowed == column || unqualify(allowed) == unqualify(column) {
			return true
		}
	}
	return false
}

func unqualify(column string) string {
	if idx := strings.LastIndexByte(column, '.'); idx != -1 {
		return column[idx+1:]
	}
	return column
}

// NewTableConfig compiles a toml table block into the immutable runtime
// configuration. The built-in delete bulk action is registered when
// bulk_delete is set.
func NewTableConfig(cfg config.TableWidgetConfig) *TableConfig {
	tc := &TableConfig{
		Name:              cfg.Name,
		Table:             cfg.Table,
		PrimaryKey:        cfg.PrimaryKey,
		SortableColumns:   cfg.SortableColumns,
		InlineEditColumns: cfg.InlineEditColumns,
		EnableBulkActions: cfg.EnableBulkActions,
		PerPage:           cfg.PerPage,
		BulkActions:       make(map[string]BulkAction),
	}
	if tc.PrimaryKey == "" {
		tc.PrimaryKey = "id"
	}
	if tc.PerPage == 0 {
		tc.PerPage = 10
	}
	for _, col := range cfg.Columns {
		tc.Columns = append(tc.Columns, Column{Name: col.Name, Label: col.Label})
	}
	for _, join := range cfg.Joins {
		tc.Joins = append(tc.Joins, Join{Type: strings.ToUpper(join.Type), Table: join.Table, Condition: join.Condition})
	}
	for _, group := range cfg.Where {
		cg := ConditionGroup{Operator: strings.ToUpper(group.Operator)}
		if cg.Operator != "OR" {
			cg.Operator = "AND"
		}
		for _, cond := range group.Conditions {
			comparator := strings.ToUpper(cond.Comparator)
			var value interface{} = cond.Value
			if comparator == "IN" || comparator == "NOT IN" {
				parts := strings.Split(cond.Value, ",")
				list := make([]interface{}, 0, len(parts))
				for _, part := range parts {
					list = append(list, strings.TrimSpace(part))
				}
				value = list
			}
			cg.Conditions = append(cg.Conditions, Condition{Field: cond.Field, Comparator: comparator, Value: value})
		}
		tc.Scope = append(tc.Scope, cg)
	}
	if cfg.BulkDelete {
		tc.BulkActions["delete"] = BulkAction{Label: "Delete", Confirm: "Delete the selected records?"}
	}
	if cfg.Upload.Path != "" {
		tc.Upload = UploadPolicy{
			Dir:               cfg.Upload.Path,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
			MaxBytes:          int64(cfg.Upload.MaxFileSizeMB) * 1024 * 1024,
		}
	}
	return tc
}

// RegisterBulkAction adds a callback-backed bulk action. Setup-time only.
func (c *TableConfig) RegisterBulkAction(name, label, confirm string, handler BulkHandler) {
	c.BulkActions[name] = BulkAction{Label: label, Confirm: confirm, Handler: handler}
}

// RegisterActionGroup adds a group of per-row callbacks. Setup-time only.
func (c *TableConfig) RegisterActionGroup(name string, actions map[string]RowHandler) {
	c.ActionGroups = append(c.ActionGroups, ActionGroup{Name: name, Actions: actions})
}
