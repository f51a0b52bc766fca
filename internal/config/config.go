package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"rank-drop-alerts/internal/logging"
)

// Config materialises application configuration. It is built once at startup
// and passed explicitly; no component reads ambient globals.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Search    SearchConfig    `mapstructure:"search"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	History   HistoryConfig   `mapstructure:"history"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Export    ExportConfig    `mapstructure:"export"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SearchConfig parameterises the marketplace search endpoint.
type SearchConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Phrases        []string      `mapstructure:"phrases"`
	MaxPages       int           `mapstructure:"max_pages"`
	Brand          string        `mapstructure:"brand"`
	Dest           string        `mapstructure:"dest"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// CatalogConfig carries the raw card ID to SKU mapping. Keys are decimal
// card IDs; viper map keys are always strings.
type CatalogConfig struct {
	SKUs map[string]string `mapstructure:"skus"`
}

// Mapping converts the configured string keys into raw card IDs.
func (c CatalogConfig) Mapping() (map[int64]string, error) {
	mapping := make(map[int64]string, len(c.SKUs))
	for raw, sku := range c.SKUs {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog.skus key %q is not a card id: %w", raw, err)
		}
		mapping[id] = sku
	}
	return mapping, nil
}

// HistoryConfig locates the durable history log.
type HistoryConfig struct {
	File string `mapstructure:"file"`
}

// DatabaseConfig encapsulates optional PostgreSQL connectivity. When DSN is
// set the history log lives in Postgres instead of the CSV file.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs tracking and report cadence.
type SchedulerConfig struct {
	FetchInterval time.Duration `mapstructure:"fetch_interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	ReportWeekday string        `mapstructure:"report_weekday"`
	ReportTime    string        `mapstructure:"report_time"`
}

// ReportSchedule parses the weekly report cadence.
func (s SchedulerConfig) ReportSchedule() (time.Weekday, int, int, error) {
	weekday, err := parseWeekday(s.ReportWeekday)
	if err != nil {
		return 0, 0, 0, err
	}

	parts := strings.SplitN(s.ReportTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("scheduler.report_time must look like 10:00, got %q", s.ReportTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, 0, fmt.Errorf("scheduler.report_time hour out of range: %q", s.ReportTime)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, fmt.Errorf("scheduler.report_time minute out of range: %q", s.ReportTime)
	}

	return weekday, hour, minute, nil
}

// AlertingConfig defines the drop alert rule.
type AlertingConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	DropThreshold int  `mapstructure:"drop_threshold"`
}

// TelegramConfig describes the messaging channel.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatIDs        []string      `mapstructure:"chat_ids"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollCommands   bool          `mapstructure:"poll_commands"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
}

// ExportConfig locates report artifacts.
type ExportConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	GraphDir     string `mapstructure:"graph_dir"`
	WorkbookFile string `mapstructure:"workbook_file"`
	ArchiveFile  string `mapstructure:"archive_file"`
}

// HealthConfig configures the liveness endpoint.
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANKWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rankwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("search.base_url", "https://search.wb.ru")
	v.SetDefault("search.max_pages", 3)
	v.SetDefault("search.dest", "-1257484")
	v.SetDefault("search.request_timeout", "10s")
	v.SetDefault("search.user_agent", "rankwatcher/1.0")

	v.SetDefault("history.file", "data/history.csv")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("scheduler.fetch_interval", "4h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.report_weekday", "sunday")
	v.SetDefault("scheduler.report_time", "10:00")

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.drop_threshold", 20)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.request_timeout", "30s")
	v.SetDefault("telegram.poll_commands", false)
	v.SetDefault("telegram.poll_timeout", "25s")

	v.SetDefault("export.data_dir", "data")
	v.SetDefault("export.graph_dir", "graphs")
	v.SetDefault("export.workbook_file", "data/weekly_report.xlsx")
	v.SetDefault("export.archive_file", "graphs.zip")

	v.SetDefault("health.enabled", false)
	v.SetDefault("health.addr", ":8080")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Search.Phrases) == 0 {
		return fmt.Errorf("search.phrases must list at least one phrase")
	}
	if c.Search.Brand == "" {
		return fmt.Errorf("search.brand is required")
	}
	if c.Search.MaxPages <= 0 {
		return fmt.Errorf("search.max_pages must be greater than zero")
	}
	if c.Scheduler.FetchInterval <= 0 {
		return fmt.Errorf("scheduler.fetch_interval must be greater than zero")
	}
	if _, _, _, err := c.Scheduler.ReportSchedule(); err != nil {
		return err
	}
	if c.Alerting.Enabled && c.Alerting.DropThreshold <= 0 {
		return fmt.Errorf("alerting.drop_threshold must be greater than zero")
	}
	if c.History.File == "" && c.Database.DSN == "" {
		return fmt.Errorf("history.file or database.dsn must be configured")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if len(c.Telegram.ChatIDs) == 0 {
			return fmt.Errorf("telegram.chat_ids must list at least one recipient")
		}
	}
	if _, err := c.Catalog.Mapping(); err != nil {
		return err
	}
	return nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("scheduler.report_weekday %q is not a weekday", name)
}
