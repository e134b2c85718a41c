package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Kellerman81/go_table_editor/api"
	"github.com/Kellerman81/go_table_editor/config"
	"github.com/Kellerman81/go_table_editor/database"
	"github.com/Kellerman81/go_table_editor/logger"
	"github.com/Kellerman81/go_table_editor/tableapi"

	"github.com/DeanThompson/ginpprof"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginlog "github.com/toorop/gin-logrus"
)

// @title go_table_editor API

func main() {
	f, errcfg := config.LoadCfg(config.Configfile)
	if errcfg != nil {
		fmt.Println("Config could not be loaded", errcfg)
		os.Exit(0)
	}
	cfg_general := config.ConfigGetGeneral()

	if cfg_general.EnableFileWatcher {
		f.Watch(func(event interface{}, err error) {
			if err != nil {
				log.Printf("watch error: %v", err)
				return
			}
			log.Println("cfg reloaded")
			time.Sleep(time.Duration(2) * time.Second)
			config.LoadCfgData(f)
		})
	}

	logger.InitLogger(logger.LoggerConfig{
		LogLevel:     cfg_general.LogLevel,
		LogFileSize:  cfg_general.LogFileSize,
		LogFileCount: cfg_general.LogFileCount,
		LogCompress:  cfg_general.LogCompress,
	})
	logger.Log.Infoln("Starting go_table_editor")
	logger.Log.Infoln("------------------------------")

	logger.Log.Infoln("Initialize Database")
	if err := database.InitDb(cfg_general.DBPath); err != nil {
		logger.Log.Errorln("db init failed", err)
		os.Exit(100)
	}

	logger.Log.Infoln("Check Database for Upgrades")
	database.UpgradeDB(cfg_general.DBPath)

	logger.Log.Infoln("Building Table Widgets")
	for _, tablecfg := range config.ConfigGet().Tables {
		widget := tableapi.NewTableConfig(tablecfg)
		schema, err := tableapi.LoadSchema(widget.BaseTable(), tablecfg.ColumnTypes, tablecfg.ColumnOptions)
		if err != nil {
			logger.Log.Errorln("schema load failed for ", widget.BaseTable(), ": ", err)
			os.Exit(100)
		}
		api.Widgets[widget.Name] = tableapi.NewDispatcher(widget, schema)
		logger.Log.Infoln("Table Widget ready: ", widget.Name)
	}

	logger.Log.Infoln("Starting API")
	router := gin.New()
	if !strings.EqualFold(cfg_general.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(ginlog.Logger(logger.Log), gin.Recovery())
	if cfg_general.EnableCors {
		router.Use(cors.Default())
	}

	logger.Log.Infoln("Starting API Endpoints")
	routerapi := router.Group("/api")
	api.AddGeneralRoutes(routerapi)

	routertables := routerapi.Group("/tables")
	api.AddTableRoutes(routertables)

	if strings.EqualFold(cfg_general.LogLevel, "Debug") {
		ginpprof.Wrap(router)
	}

	logger.Log.Infoln("Starting API Webserver on port", cfg_general.WebPort)
	server := &http.Server{
		Addr:    ":" + cfg_general.WebPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			database.DB.Close()
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("receive interrupt signal")

	database.DB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}
