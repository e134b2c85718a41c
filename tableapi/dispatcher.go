package tableapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/Kellerman81/go_table_editor/database"
	"github.com/Kellerman81/go_table_editor/logger"
	gin "github.com/gin-gonic/gin"
)

// Request parameter names of the ajax wire protocol.
const (
	ParamAction     = "action"
	ParamID         = "id"
	ParamPage       = "page"
	ParamPerPage    = "per_page"
	ParamSearch     = "search"
	ParamSearchCol  = "search_column"
	ParamSortCol    = "sort_column"
	ParamSortDir    = "sort_direction"
	ParamBulkAction = "bulk_action"
	ParamSelected   = "selected_ids"
	ParamField      = "field"
	ParamValue      = "value"
	ParamActionName = "action_name"
	ParamRowID      = "row_id"
	ParamRowData    = "row_data"
)

const maxPerPage = 1000

var columnsanitizer = regexp.MustCompile(`[^A-Za-z0-9_.]`)

// Dispatcher serves the ajax protocol for one table widget. Stateless per
// request; the only state it holds is the immutable configuration and the
// schema loaded at setup time.
type Dispatcher struct {
	Config *TableConfig
	Schema Schema
}

func NewDispatcher(cfg *TableConfig, schema Schema) *Dispatcher {
	return &Dispatcher{Config: cfg, Schema: schema}
}

// Handle routes an incoming request by its action parameter. Unknown
// actions are rejected before any side effect. Every branch terminates
// with exactly one JSON envelope.
func (d *Dispatcher) Handle(ctx *gin.Context) {
	switch getParamValue(ctx, ParamAction) {
	case "fetch_data":
		d.fetchData(ctx)
	case "fetch_record":
		d.fetchRecord(ctx)
	case "add_record":
		d.addRecord(ctx)
	case "edit_record":
		d.editRecord(ctx)
	case "delete_record":
		d.deleteRecord(ctx)
	case "bulk_action":
		d.bulkAction(ctx)
	case "inline_edit":
		d.inlineEdit(ctx)
	case "action_callback":
		d.actionCallback(ctx)
	case "upload_file":
		d.uploadFile(ctx)
	default:
		respondError(ctx, ErrInvalidAction)
	}
}

func (d *Dispatcher) fetchData(ctx *gin.Context) {
	params := ListParams{
		Page:          parseIntOrDefault(getParamValue(ctx, ParamPage), 1),
		PerPage:       parseIntOrDefault(getParamValue(ctx, ParamPerPage), d.Config.PerPage),
		Search:        getParamValue(ctx, ParamSearch),
		SearchColumn:  sanitizeColumn(getParamValue(ctx, ParamSearchCol)),
		SortColumn:    sanitizeColumn(getParamValue(ctx, ParamSortCol)),
		SortDirection: getParamValue(ctx, ParamSortDir),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 0 {
		params.PerPage = 0
	}
	if params.PerPage > maxPerPage {
		params.PerPage = maxPerPage
	}

	query, args := BuildSelect(d.Config, params)
	rows, err := database.QueryRows(query, args...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	countquery, countargs := BuildCount(d.Config, params)
	total, err := database.QueryCount(countquery, countargs...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	totalpages := 1
	if params.PerPage > 0 {
		totalpages = (total + params.PerPage - 1) / params.PerPage
	}
	respondSuccess(ctx, "ok", gin.H{
		"data":        rows,
		"total":       total,
		"page":        params.Page,
		"per_page":    params.PerPage,
		"total_pages": totalpages,
	})
}

func (d *Dispatcher) fetchRecord(ctx *gin.Context) {
	id, ok := requireID(ctx, ParamID)
	if !ok {
		return
	}
	query, args := BuildSelectOne(d.Config, id)
	row, err := database.QueryRowMap(query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(ctx, ErrNotFound)
			return
		}
		respondError(ctx, err)
		return
	}
	respondSuccess(ctx, "ok", gin.H{"data": row})
}

func (d *Dispatcher) addRecord(ctx *gin.Context) {
	fields, err := d.collectFields(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	query, args, err := BuildInsert(d.Config, fields)
	if err != nil {
		respondError(ctx, err)
		return
	}
	result, err := database.ExecSQL(query, args...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	id, _ := result.LastInsertId()
	respondSuccess(ctx, "record added", gin.H{"id": id})
}

func (d *Dispatcher) editRecord(ctx *gin.Context) {
	id, ok := requireID(ctx, d.Config.PrimaryKeyColumn())
	if !ok {
		return
	}
	fields, err := d.collectFields(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	query, args, err := BuildUpdate(d.Config, fields, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	result, err := database.ExecSQL(query, args...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(ctx, ErrNotFound)
		return
	}
	respondSuccess(ctx, "record updated", nil)
}

func (d *Dispatcher) deleteRecord(ctx *gin.Context) {
	id, ok := requireID(ctx, ParamID)
	if !ok {
		return
	}
	query, args := BuildDelete(d.Config, id)
	result, err := database.ExecSQL(query, args...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		respondError(ctx, ErrNotFound)
		return
	}
	respondSuccess(ctx, "record deleted", gin.H{"affected_rows": affected})
}

func (d *Dispatcher) bulkAction(ctx *gin.Context) {
	if !d.Config.EnableBulkActions {
		respondError(ctx, &ConfigurationError{Reason: "bulk actions are not enabled"})
		return
	}
	name := getParamValue(ctx, ParamBulkAction)
	if name == "" {
		respondError(ctx, &ConfigurationError{Reason: "no bulk action given"})
		return
	}
	ids, err := parseIDList(getParamValue(ctx, ParamSelected))
	if err != nil {
		respondError(ctx, err)
		return
	}
	action, ok := d.Config.BulkActions[name]
	if !ok {
		respondError(ctx, &ConfigurationError{Reason: "bulk action not registered: " + name})
		return
	}
	if action.Handler == nil {
		query, args := BuildBulkDelete(d.Config, ids)
		result, err := database.ExecSQL(query, args...)
		if err != nil {
			respondError(ctx, err)
			return
		}
		affected, _ := result.RowsAffected()
		respondSuccess(ctx, "records deleted", gin.H{"affected_count": affected})
		return
	}
	// Callback-based bulk actions are not wrapped in a transaction; partial
	// success is whatever the callback itself guarantees.
	done, err := action.Handler.Execute(ids, database.DB, d.Config.BaseTable())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !done {
		respondFailure(ctx, http.StatusBadRequest, "bulk action reported failure")
		return
	}
	respondSuccess(ctx, "bulk action completed", gin.H{"affected_count": len(ids)})
}

func (d *Dispatcher) inlineEdit(ctx *gin.Context) {
	id, ok := requireID(ctx, ParamID)
	if !ok {
		return
	}
	field := sanitizeColumn(getParamValue(ctx, ParamField))
	if field == "" {
		respondError(ctx, &ValidationError{Reason: "no field given"})
		return
	}
	if !d.Config.IsInlineEditable(field) {
		respondError(ctx, &ConfigurationError{Reason: "column not editable: " + field})
		return
	}
	column := unqualify(field)
	value := interface{}(getParamValue(ctx, ParamValue))
	if schema, known := d.Schema[column]; known {
		coerced, err := ValidateField(schema, getParamValue(ctx, ParamValue))
		if err != nil {
			respondError(ctx, wrapFieldError(err, column))
			return
		}
		value = coerced
	}
	query, args, err := BuildUpdate(d.Config, map[string]interface{}{column: value}, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	result, err := database.ExecSQL(query, args...)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondError(ctx, ErrNotFound)
		return
	}
	respondSuccess(ctx, "record updated", nil)
}

func (d *Dispatcher) actionCallback(ctx *gin.Context) {
	name := getParamValue(ctx, ParamActionName)
	if name == "" {
		respondError(ctx, &ConfigurationError{Reason: "no action name given"})
		return
	}
	id, ok := requireID(ctx, ParamRowID)
	if !ok {
		return
	}
	// The row snapshot is echoed back by the client - advisory only, never
	// authoritative. Handlers that need correct state re-fetch it.
	row := make(map[string]interface{})
	if raw := getParamValue(ctx, ParamRowData); raw != "" {
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			respondError(ctx, &ValidationError{Field: ParamRowData, Reason: "not valid json"})
			return
		}
	}
	var handler RowHandler
	for _, group := range d.Config.ActionGroups {
		if found, ok := group.Actions[name]; ok {
			handler = found
			break
		}
	}
	if handler == nil {
		respondError(ctx, &ConfigurationError{Reason: "action not registered: " + name})
		return
	}
	done, err := handler.Execute(id, row, database.DB, d.Config.BaseTable())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !done {
		respondFailure(ctx, http.StatusBadRequest, "action reported failure")
		return
	}
	respondSuccess(ctx, "action completed", nil)
}

// collectFields pulls the submitted form fields, validates each against the
// schema (fields unknown to the schema and the primary key are skipped) and
// merges stored upload paths for file columns. Any single validation
// failure rejects the whole write.
func (d *Dispatcher) collectFields(ctx *gin.Context) (map[string]interface{}, error) {
	ctx.Request.ParseMultipartForm(32 << 20)
	pk := d.Config.PrimaryKeyColumn()
	fields := make(map[string]interface{})
	for key, values := range ctx.Request.PostForm {
		if key == ParamAction || key == pk {
			continue
		}
		schema, known := d.Schema[key]
		if !known {
			continue
		}
		raw := ""
		if len(values) > 0 {
			raw = values[0]
		}
		coerced, err := ValidateField(schema, raw)
		if err != nil {
			return nil, wrapFieldError(err, key)
		}
		fields[key] = coerced
	}
	if ctx.Request.MultipartForm != nil {
		for key, files := range ctx.Request.MultipartForm.File {
			schema, known := d.Schema[key]
			if !known || schema.Type != TypeFile || len(files) == 0 {
				continue
			}
			path, _, err := d.storeUpload(ctx, files[0])
			if err != nil {
				return nil, err
			}
			fields[key] = path
		}
	}
	return fields, nil
}

func getParamValue(ctx *gin.Context, key string) string {
	if value := ctx.PostForm(key); value != "" {
		return value
	}
	return ctx.Query(key)
}

func sanitizeColumn(column string) string {
	return columnsanitizer.ReplaceAllString(column, "")
}

func parseIntOrDefault(raw string, defaultval int) int {
	if raw == "" {
		return defaultval
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultval
	}
	return value
}

// requireID resolves a required positive-integer id parameter, emitting the
// failure envelope itself when the value is missing or invalid.
func requireID(ctx *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(getParamValue(ctx, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(ctx, &ValidationError{Field: param, Reason: "missing or invalid id"})
		return 0, false
	}
	return id, true
}

// parseIDList decodes the selected_ids JSON array and rejects non-positive
// entries and empty selections.
func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, &ValidationError{Field: ParamSelected, Reason: "no ids selected"}
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, &ValidationError{Field: ParamSelected, Reason: "not a valid id list"}
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Field: ParamSelected, Reason: "no ids selected"}
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, &ValidationError{Field: ParamSelected, Reason: "ids must be positive"}
		}
	}
	return ids, nil
}

func wrapFieldError(err error, field string) error {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Field == "" {
		return &ValidationError{Field: field, Reason: verr.Reason}
	}
	return err
}

// respondSuccess emits the uniform success envelope with any
// operation-specific extra fields merged in.
func respondSuccess(ctx *gin.Context, message string, extra gin.H) {
	payload := gin.H{"success": true, "message": message}
	for key, value := range extra {
		payload[key] = value
	}
	ctx.JSON(http.StatusOK, payload)
}

func respondFailure(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"success": false, "message": message})
}

// respondError converts any error to the failure envelope. No error ever
// escapes the dispatcher as a non-JSON response.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	var verr *ValidationError
	var cerr *ConfigurationError
	var uerr *UploadError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrNoValidData):
		status = http.StatusBadRequest
	case errors.As(err, &verr), errors.As(err, &cerr), errors.As(err, &uerr):
		status = http.StatusBadRequest
	default:
		logger.Log.Error("table ", ctx.Param("name"), " request failed: ", err)
	}
	respondFailure(ctx, status, err.Error())
}
