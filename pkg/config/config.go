package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"FinCorr/pkg/logger"
	"FinCorr/pkg/util"

	"gopkg.in/yaml.v3"
)

// SymbolEntry is one watch-list entry: a symbol and its display name.
type SymbolEntry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log   logger.Config `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"` // sqlite or clickhouse
		SQLite struct {
			Path        string        `yaml:"path"`
			BusyTimeout time.Duration `yaml:"busy_timeout"`
		} `yaml:"sqlite"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Provider struct {
		Yahoo struct {
			BaseURL      string        `yaml:"base_url"`
			UserAgent    string        `yaml:"user_agent"`
			Timeout      time.Duration `yaml:"timeout"`
			MinInterval  time.Duration `yaml:"min_interval"`
			LookbackDays int           `yaml:"lookback_days"`
		} `yaml:"yahoo"`
		TPEx struct {
			BaseURL   string        `yaml:"base_url"`
			UserAgent string        `yaml:"user_agent"`
			Timeout   time.Duration `yaml:"timeout"`
		} `yaml:"tpex"`
	} `yaml:"provider"`
	Updater struct {
		RetentionDays int           `yaml:"retention_days"`
		Delay         time.Duration `yaml:"delay"`
		Symbols       []SymbolEntry `yaml:"symbols"`
	} `yaml:"updater"`
	Scheduler struct {
		Enabled      bool          `yaml:"enabled"`
		DailyCron    string        `yaml:"daily_cron"`
		TPExCron     string        `yaml:"tpex_cron"`
		PruneCron    string        `yaml:"prune_cron"`
		TPExDelay    time.Duration `yaml:"tpex_delay"`
		RunOnStartup bool          `yaml:"run_on_startup"`
	} `yaml:"scheduler"`
	Correlation struct {
		Workers int `yaml:"workers"`
		TopN    int `yaml:"top_n"`
	} `yaml:"correlation"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		LogTopic     string        `yaml:"log_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
}

// Default returns a configuration usable without a file: local SQLite store,
// Yahoo provider, no Kafka or Redis.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log = logger.Config{Level: "info", Format: "console", Output: "stdout"}
	c.Store.Driver = "sqlite"
	c.Store.SQLite.Path = "stock_data.db"
	c.Store.SQLite.BusyTimeout = 5 * time.Second
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "fincorr"
	c.Provider.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	c.Provider.Yahoo.UserAgent = "Mozilla/5.0"
	c.Provider.Yahoo.Timeout = 30 * time.Second
	c.Provider.Yahoo.MinInterval = 500 * time.Millisecond
	c.Provider.Yahoo.LookbackDays = 7
	c.Provider.TPEx.BaseURL = "https://www.tpex.org.tw"
	c.Provider.TPEx.UserAgent = "Mozilla/5.0"
	c.Provider.TPEx.Timeout = 10 * time.Second
	c.Updater.RetentionDays = 120
	c.Updater.Delay = 500 * time.Millisecond
	c.Scheduler.DailyCron = "0 30 14 * * 1-5"
	c.Scheduler.TPExCron = "0 0 15 * * 1-5"
	c.Scheduler.PruneCron = "0 0 3 * * 0"
	c.Scheduler.TPExDelay = time.Second
	c.Correlation.Workers = 8
	c.Correlation.TopN = 20
	c.Cache.TTL = 5 * time.Minute
	c.Cache.Redis.Prefix = "fincorr"
	c.Kafka.Topic = "fincorr.price_updates"
	c.Kafka.LogTopic = "fincorr.logs"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.MaxAttempts = 3
	c.Kafka.WriteTimeout = 10 * time.Second
	c.Export.Dir = "export"
	return c
}

// Load reads a YAML configuration file on top of Default().
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINCORR_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINCORR_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("FINCORR_SQLITE_PATH"); v != "" {
		c.Store.SQLite.Path = v
	}
	if v := os.Getenv("FINCORR_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("FINCORR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required")
		}
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("clickhouse.database is required")
		}
	default:
		return fmt.Errorf("store.driver must be 'sqlite' or 'clickhouse', got '%s'", c.Store.Driver)
	}
	if c.Provider.Yahoo.BaseURL == "" {
		return fmt.Errorf("provider.yahoo.base_url is required")
	}
	if c.Updater.RetentionDays <= 0 {
		return fmt.Errorf("updater.retention_days must be positive")
	}
	if c.Updater.Delay < 0 {
		return fmt.Errorf("updater.delay cannot be negative")
	}
	if c.Correlation.Workers <= 0 {
		return fmt.Errorf("correlation.workers must be positive")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required")
		}
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required")
	}
	for i, s := range c.Updater.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("updater.symbols[%d].symbol is required", i)
		}
	}
	return nil
}
