// koanf_api
package config

import (
	"sync"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
)

var Configfile = "./config.toml"

//Main Config
type MainConfig struct {
	General GeneralConfig       `koanf:"general"`
	Tables  []TableWidgetConfig `koanf:"tables"`
}

type GeneralConfig struct {
	LogLevel          string `koanf:"LogLevel"`
	DBLogLevel        string `koanf:"DBLogLevel"`
	LogFileSize       int    `koanf:"LogFileSize"`
	LogFileCount      int    `koanf:"LogFileCount"`
	LogCompress       bool   `koanf:"LogCompress"`
	WebPort           string `koanf:"webport"`
	DBPath            string `koanf:"dbpath"`
	EnableFileWatcher bool   `koanf:"EnableFileWatcher"`
	EnableCors        bool   `koanf:"EnableCors"`
}

//Table Widget Config

type TableWidgetConfig struct {
	Name              string              `koanf:"name"`
	Table             string              `koanf:"table"`
	PrimaryKey        string              `koanf:"primary_key"`
	PerPage           int                 `koanf:"per_page"`
	EnableBulkActions bool                `koanf:"enable_bulk_actions"`
	BulkDelete        bool                `koanf:"bulk_delete"`
	Columns           []TableColumnConfig `koanf:"columns"`
	Joins             []TableJoinConfig   `koanf:"joins"`
	SortableColumns   []string            `koanf:"sortable_columns"`
	InlineEditColumns []string            `koanf:"inline_edit_columns"`
	Where             []TableWhereConfig  `koanf:"where"`
	ColumnTypes       map[string]string   `koanf:"column_types"`
	ColumnOptions     map[string][]string `koanf:"column_options"`
	Upload            UploadConfig        `koanf:"upload"`
}

type TableColumnConfig struct {
	Name  string `koanf:"name"`
	Label string `koanf:"label"`
}

type TableJoinConfig struct {
	Type      string `koanf:"type"`
	Table     string `koanf:"table"`
	Condition string `koanf:"condition"`
}

type TableWhereConfig struct {
	Operator   string                 `koanf:"operator"`
	Conditions []TableConditionConfig `koanf:"conditions"`
}

type TableConditionConfig struct {
	Field      string `koanf:"field"`
	Comparator string `koanf:"comparator"`
	Value      string `koanf:"value"`
}

type UploadConfig struct {
	Path              string   `koanf:"path"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
	MaxFileSizeMB     int      `koanf:"max_file_size_mb"`
}

var settings MainConfig
var cfglock = sync.RWMutex{}

// LoadCfg parses the toml config file and returns the file provider so the
// caller can attach a watcher for live reloads.
func LoadCfg(path string) (*file.File, error) {
	f := file.Provider(path)
	return f, LoadCfgData(f)
}

func LoadCfgData(f *file.File) error {
	k := koanf.New(".")
	if err := k.Load(f, toml.Parser()); err != nil {
		return err
	}
	var cfg MainConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return err
	}
	if cfg.General.WebPort == "" {
		cfg.General.WebPort = "9090"
	}
	if cfg.General.DBPath == "" {
		cfg.General.DBPath = "./databases/data.db"
	}
	cfglock.Lock()
	settings = cfg
	cfglock.Unlock()
	return nil
}

func ConfigGet() MainConfig {
	cfglock.RLock()
	defer cfglock.RUnlock()
	return settings
}

func ConfigGetGeneral() GeneralConfig {
	cfglock.RLock()
	defer cfglock.RUnlock()
	return settings.General
}
