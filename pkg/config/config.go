package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/logger"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// RefreshLimit throttles POST /api/refresh per client; burst 0 disables it.
		RefreshLimit    struct {
			Burst    int           `yaml:"burst" default:"3" validate:"gte=0"`
			Interval time.Duration `yaml:"interval" default:"1m"`
		} `yaml:"refresh_limit"`
		CORS struct {
			Enabled      bool     `yaml:"enabled" default:"true"`
			AllowOrigins []string `yaml:"allow_origins"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Sources struct {
		DataDirs       []string          `yaml:"data_dirs" default:"[\"data\",\".\"]"`
		Files          map[string]string `yaml:"files"`
		Sheet          string            `yaml:"sheet"`
		RemoteBaseURL  string            `yaml:"remote_base_url" validate:"omitempty,url"`
		RemoteTimeout  time.Duration     `yaml:"remote_timeout" default:"30s"`
		RemoteMaxBytes int64             `yaml:"remote_max_bytes" default:"33554432" validate:"gte=1024"`
		CacheTTL       time.Duration     `yaml:"cache_ttl" default:"1h"`
		Breaker        struct {
			MaxFailures uint32        `yaml:"max_failures" default:"3" validate:"gte=1"`
			OpenTimeout time.Duration `yaml:"open_timeout" default:"60s"`
		} `yaml:"breaker"`
		ClickHouse struct {
			Enabled     bool   `yaml:"enabled"`
			TablePrefix string `yaml:"table_prefix" default:"raw_"`
			OrderBy     string `yaml:"order_by" default:"Date"`
		} `yaml:"clickhouse"`
	} `yaml:"sources"`
	Cache struct {
		MemoryMaxSize int `yaml:"memory_max_size" default:"256" validate:"gte=1"`
		Redis         struct {
			Enabled      bool   `yaml:"enabled"`
			Host         string `yaml:"host" default:"localhost"`
			Port         int    `yaml:"port" default:"6379"`
			Password     string `yaml:"password"`
			DB           int    `yaml:"db"`
			PoolSize     int    `yaml:"pool_size" default:"10" validate:"gte=1"`
			MinIdleConns int    `yaml:"min_idle_conns" default:"2"`
			Prefix       string `yaml:"prefix" default:"mt"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"market"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"market-timing.snapshots"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	Pipeline struct {
		Schedule    string `yaml:"schedule" default:"@every 1h"`
		RunOnStart  bool   `yaml:"run_on_start"`
		HistorySize int    `yaml:"history_size" default:"12" validate:"gte=1,lte=240"`
		DropWarmup  bool   `yaml:"drop_warmup"`
		BondYield   struct {
			Anchor float64 `yaml:"anchor" default:"7.2"`
			Slope  float64 `yaml:"slope" default:"0.08"`
		} `yaml:"bond_yield"`
		Indicators models.IndicatorRules `yaml:"indicators"`
	} `yaml:"pipeline"`
	Valuation struct {
		Source         string `yaml:"source" default:"pe_data"`
		IndexColumn    string `yaml:"index_column" default:"Index"`
		DateColumn     string `yaml:"date_column" default:"Date"`
		PEColumn       string `yaml:"pe_column" default:"PE_Ratio"`
		PBColumn       string `yaml:"pb_column" default:"PB_Ratio"`
		DivYieldColumn string `yaml:"div_yield_column" default:"Div_Yield"`
		MinHistory     int    `yaml:"min_history" default:"5"`
	} `yaml:"valuation"`
	Series  []models.SeriesDescriptor `yaml:"series" validate:"dive"`
	Signals models.SignalRules        `yaml:"signals"`
}

// Load reads and parses a YAML configuration file. Defaults are applied first
// so the file only has to name what it changes; an empty path yields the
// built-in configuration.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.fill(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MT_DATA_DIR"); v != "" {
		c.Sources.DataDirs = splitList(v)
	}
	if v := os.Getenv("MT_REMOTE_BASE_URL"); v != "" {
		c.Sources.RemoteBaseURL = v
	}
	if v := os.Getenv("MT_REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("MT_REDIS_ADDR: invalid port %q", port)
			}
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("MT_KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("MT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MT_HTTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MT_HTTP_PORT: invalid port %q", v)
		}
		c.Server.Port = p
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// fill supplies the built-in series set and signal rules when the file leaves
// them out, and applies field defaults to list elements decoded from YAML.
func (c *Config) fill() error {
	if len(c.Series) == 0 {
		c.Series = DefaultSeries()
	}
	if len(c.Sources.Files) == 0 {
		c.Sources.Files = DefaultFiles()
	}
	if c.Sources.RemoteBaseURL == "" {
		c.Sources.RemoteBaseURL = DefaultRemoteBaseURL
	}
	def := DefaultSignalRules()
	if len(c.Signals.Composite.Inputs) == 0 {
		c.Signals.Composite.Inputs = def.Composite.Inputs
	}
	if len(c.Signals.Composite.Labels.Bands) == 0 {
		c.Signals.Composite.Labels = def.Composite.Labels
	}
	if len(c.Signals.Regimes) == 0 {
		c.Signals.Regimes = def.Regimes
	}
	if len(c.Signals.Allocations) == 0 {
		c.Signals.Allocations = def.Allocations
	}
	if len(c.Pipeline.Indicators.Ratios) == 0 {
		c.Pipeline.Indicators.Ratios = DefaultRatios()
	}

	for i := range c.Series {
		if err := defaults.Set(&c.Series[i]); err != nil {
			return err
		}
	}
	for i := range c.Signals.Composite.Inputs {
		if err := defaults.Set(&c.Signals.Composite.Inputs[i].Table); err != nil {
			return err
		}
		if c.Signals.Composite.Inputs[i].Table.Name == "" {
			c.Signals.Composite.Inputs[i].Table.Name = c.Signals.Composite.Inputs[i].Name
		}
	}
	if err := defaults.Set(&c.Signals.Composite.Labels); err != nil {
		return err
	}
	for i := range c.Pipeline.Indicators.Ratios {
		if err := defaults.Set(&c.Pipeline.Indicators.Ratios[i]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	var errs []error
	bases := 0
	names := make(map[string]bool, len(c.Series))
	for _, d := range c.Series {
		if names[d.Name] {
			errs = append(errs, fmt.Errorf("series %q declared twice", d.Name))
		}
		names[d.Name] = true
		if d.Base {
			bases++
		}
		if _, ok := c.Sources.Files[d.Source]; !ok && !c.Sources.ClickHouse.Enabled {
			errs = append(errs, fmt.Errorf("series %q: no file configured for source %q", d.Name, d.Source))
		}
	}
	if bases != 1 {
		errs = append(errs, fmt.Errorf("exactly one base series required, got %d", bases))
	}

	for _, in := range c.Signals.Composite.Inputs {
		if err := in.Table.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Signals.Composite.Labels.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers required when kafka is enabled"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
