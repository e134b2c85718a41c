package tableapi

import (
	"sort"
	"strconv"
	"strings"
)

// ListParams are the sanitized request parameters for a paged list query.
// Page is 1-based; PerPage 0 means all records.
type ListParams struct {
	Page          int
	PerPage       int
	Search        string
	SearchColumn  string
	SortColumn    string
	SortDirection string
}

// quoteIdentifier backtick-quotes a column/table token unless it is a
// qualified name or an already-aliased raw fragment. Unquoted passthrough
// positions may only ever carry trusted configuration strings.
func quoteIdentifier(token string) string {
	if strings.ContainsAny(token, ". ") {
		return token
	}
	return "`" + token + "`"
}

// buildScope renders the configured row-scoping predicate tree. Groups are
// AND-combined; conditions inside a group use the group operator. Statements
// against the unaliased base table resolve fields to their unqualified names,
// same as the primary key.
func buildScope(c *TableConfig, baseTable bool) (string, []interface{}) {
	var groups []string
	var args []interface{}
	for _, group := range c.Scope {
		var parts []string
		for _, cond := range group.Conditions {
			field := cond.Field
			if baseTable {
				field = unqualify(field)
			}
			switch cond.Comparator {
			case "IN", "NOT IN":
				list, ok := cond.Value.([]interface{})
				if !ok || len(list) == 0 {
					continue
				}
				placeholders := strings.TrimSuffix(strings.Repeat("?,", len(list)), ",")
				parts = append(parts, quoteIdentifier(field)+" "+cond.Comparator+" ("+placeholders+")")
				args = append(args, list...)
			default:
				parts = append(parts, quoteIdentifier(field)+" "+cond.Comparator+" ?")
				args = append(args, cond.Value)
			}
		}
		if len(parts) != 0 {
			groups = append(groups, "("+strings.Join(parts, " "+group.Operator+" ")+")")
		}
	}
	return strings.Join(groups, " AND "), args
}

// buildSearch renders the request search group: one LIKE per configured
// column OR-ed together, or a single LIKE when a search column is given.
func buildSearch(c *TableConfig, p ListParams) (string, []interface{}) {
	if p.Search == "" {
		return "", nil
	}
	term := "%" + p.Search + "%"
	if p.SearchColumn != "" && p.SearchColumn != "all" {
		return "(" + quoteIdentifier(p.SearchColumn) + " LIKE ?)", []interface{}{term}
	}
	var parts []string
	var args []interface{}
	for _, col := range c.Columns {
		parts = append(parts, quoteIdentifier(searchExpression(col.Name))+" LIKE ?")
		args = append(args, term)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// searchExpression strips a select-list alias so aliased columns remain
// usable in WHERE position.
func searchExpression(name string) string {
	if idx := strings.Index(strings.ToLower(name), " as "); idx != -1 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}

// buildWhere merges scoping and search with AND so the configured scoping
// predicates can never be bypassed by request input.
func buildWhere(c *TableConfig, p ListParams) (string, []interface{}) {
	scope, args := buildScope(c, false)
	search, searchargs := buildSearch(c, p)
	switch {
	case scope != "" && search != "":
		return " WHERE " + scope + " AND " + search, append(args, searchargs...)
	case scope != "":
		return " WHERE " + scope, args
	case search != "":
		return " WHERE " + search, searchargs
	}
	return "", nil
}

func buildFrom(c *TableConfig) string {
	var query strings.Builder
	query.WriteString(" FROM " + quoteIdentifier(c.Table))
	for _, join := range c.Joins {
		query.WriteString(" " + join.Type + " JOIN " + quoteIdentifier(join.Table) + " ON " + join.Condition)
	}
	return query.String()
}

// BuildSelect assembles the paged/sorted/filtered list query. ORDER BY is
// emitted only when the requested column is allow-listed; LIMIT is omitted
// for page size 0.
func BuildSelect(c *TableConfig, p ListParams) (string, []interface{}) {
	var query strings.Builder
	query.WriteString("SELECT ")
	for idx, col := range c.Columns {
		if idx != 0 {
			query.WriteString(",")
		}
		query.WriteString(quoteIdentifier(col.Name))
		if strings.ContainsRune(col.Name, '.') && !strings.Contains(col.Name, " ") {
			query.WriteString(" AS " + quoteIdentifier(unqualify(col.Name)))
		}
	}
	query.WriteString(buildFrom(c))

	where, args := buildWhere(c, p)
	query.WriteString(where)

	if p.SortColumn != "" && c.IsSortable(p.SortColumn) {
		direction := "ASC"
		if strings.EqualFold(p.SortDirection, "desc") {
			direction = "DESC"
		}
		query.WriteString(" ORDER BY " + quoteIdentifier(p.SortColumn) + " " + direction)
	}

	if p.PerPage > 0 {
		offset := (p.Page - 1) * p.PerPage
		query.WriteString(" LIMIT " + strconv.Itoa(offset) + "," + strconv.Itoa(p.PerPage))
	}
	return query.String(), args
}

// BuildCount runs the same FROM/JOIN/WHERE pipeline as BuildSelect with the
// column list replaced by count(*).
func BuildCount(c *TableConfig, p ListParams) (string, []interface{}) {
	where, args := buildWhere(c, p)
	return "SELECT count(*)" + buildFrom(c) + where, args
}

// BuildSelectOne fetches a single row from the base table by primary key.
func BuildSelectOne(c *TableConfig, id int64) (string, []interface{}) {
	scope, args := buildScope(c, true)
	query := "SELECT * FROM " + quoteIdentifier(c.BaseTable()) + " WHERE "
	if scope != "" {
		query += scope + " AND "
	}
	query += quoteIdentifier(c.PrimaryKeyColumn()) + " = ?"
	return query, append(args, id)
}

// BuildInsert assembles an INSERT from validated fields. The primary key is
// excluded and the column order is deterministic. An empty field set is a
// hard failure, never a silent no-op write.
func BuildInsert(c *TableConfig, fields map[string]interface{}) (string, []interface{}, error) {
	columns := fieldColumns(c, fields)
	if len(columns) == 0 {
		return "", nil, ErrNoValidData
	}
	var cols, vals string
	args := make([]interface{}, 0, len(columns))
	for idx, col := range columns {
		if idx != 0 {
			cols += ","
			vals += ","
		}
		cols += quoteIdentifier(col)
		vals += "?"
		args = append(args, fields[col])
	}
	query := "INSERT INTO " + quoteIdentifier(c.BaseTable()) + " (" + cols + ") VALUES (" + vals + ")"
	return query, args, nil
}

// BuildUpdate assembles an UPDATE against the base table. Parameter order:
// set values, scoping values, primary key value.
func BuildUpdate(c *TableConfig, fields map[string]interface{}, id int64) (string, []interface{}, error) {
	columns := fieldColumns(c, fields)
	if len(columns) == 0 {
		return "", nil, ErrNoValidData
	}
	query := "UPDATE " + quoteIdentifier(c.BaseTable()) + " SET "
	args := make([]interface{}, 0, len(columns)+2)
	for idx, col := range columns {
		if idx != 0 {
			query += ","
		}
		query += quoteIdentifier(col) + " = ?"
		args = append(args, fields[col])
	}
	scope, scopeargs := buildScope(c, true)
	query += " WHERE "
	if scope != "" {
		query += scope + " AND "
		args = append(args, scopeargs...)
	}
	query += quoteIdentifier(c.PrimaryKeyColumn()) + " = ?"
	return query, append(args, id), nil
}

// BuildDelete assembles a single-row DELETE scoped by the configured WHERE.
func BuildDelete(c *TableConfig, id int64) (string, []interface{}) {
	scope, args := buildScope(c, true)
	query := "DELETE FROM " + quoteIdentifier(c.BaseTable()) + " WHERE "
	if scope != "" {
		query += scope + " AND "
	}
	query += quoteIdentifier(c.PrimaryKeyColumn()) + " = ?"
	return query, append(args, id)
}

// BuildBulkDelete deletes all selected ids in one statement; the id list is
// bound after the scoping values.
func BuildBulkDelete(c *TableConfig, ids []int64) (string, []interface{}) {
	scope, args := buildScope(c, true)
	query := "DELETE FROM " + quoteIdentifier(c.BaseTable()) + " WHERE "
	if scope != "" {
		query += scope + " AND "
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query += quoteIdentifier(c.PrimaryKeyColumn()) + " IN (" + placeholders + ")"
	for _, id := range ids {
		args = append(args, id)
	}
	return query, args
}

// fieldColumns returns the submitted column names minus the primary key in
// sorted order so statement text is deterministic.
func fieldColumns(c *TableConfig, fields map[string]interface{}) []string {
	pk := c.PrimaryKeyColumn()
	columns := make([]string, 0, len(fields))
	for col := range fields {
		if col == pk {
			continue
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
