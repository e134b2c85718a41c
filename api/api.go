package api

import (
	"net/http"

	"github.com/Kellerman81/go_table_editor/database"
	"github.com/Kellerman81/go_table_editor/tableapi"
	gin "github.com/gin-gonic/gin"
)

// Widgets is the registry of table widgets served by this process, keyed by
// widget name. Filled once at startup.
var Widgets = make(map[string]*tableapi.Dispatcher, 5)

func AddTableRoutes(routertables *gin.RouterGroup) {
	routertables.GET("/:name/ajax", handleAjax)
	routertables.POST("/:name/ajax", handleAjax)
}

func handleAjax(ctx *gin.Context) {
	widget, ok := Widgets[ctx.Param("name")]
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "table not configured: " + ctx.Param("name")})
		return
	}
	widget.Handle(ctx)
}

// @Summary Status
// @Description Returns server status and the configured table widgets
// @Tags general
// @Produce  json
// @Success 200 {object} map[string]interface{}
// @Router /api/status [get]
func AddGeneralRoutes(routerapi *gin.RouterGroup) {
	routerapi.GET("/status", func(ctx *gin.Context) {
		names := make([]string, 0, len(Widgets))
		for name := range Widgets {
			names = append(names, name)
		}
		ctx.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "ok",
			"db_version": database.DBVersion,
			"tables":     names,
		})
	})
}
