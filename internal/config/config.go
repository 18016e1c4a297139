package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"FXSentinel/internal/model"
)

// DefaultPairs is the watchlist used when none is configured.
var DefaultPairs = []string{
	"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "NZDUSD", "USDCAD",
	"EURJPY", "EURGBP", "EURCHF", "AUDJPY", "CHFJPY", "GBPJPY", "GBPCHF",
	"AUDCAD", "EURCAD", "AUDNZD",
}

// Config holds all application configuration.
type Config struct {
	Pairs []string `yaml:"pairs" validate:"required,min=1,unique,dive,len=6,alpha,uppercase"`

	Provider struct {
		BaseURL    string        `yaml:"base_url" default:"https://www.alphavantage.co/query" validate:"url"`
		APIKey     string        `yaml:"api_key" validate:"required"`
		Pacing     time.Duration `yaml:"pacing" default:"13s" validate:"gte=0"`
		Timeout    time.Duration `yaml:"timeout" default:"60s" validate:"gt=0"`
		MaxRetries int           `yaml:"max_retries" default:"2" validate:"gte=0"`
	} `yaml:"provider"`

	Indicators struct {
		DailyDepth   int     `yaml:"daily_depth" default:"30" validate:"gtefield=BandPeriod,gtefield=TenDayWindow"`
		TenDayWindow int     `yaml:"ten_day_window" default:"10" validate:"gt=0"`
		BandPeriod   int     `yaml:"band_period" default:"20" validate:"gt=1"`
		BandMult     float64 `yaml:"band_mult" default:"2.0" validate:"gt=0"`
	} `yaml:"indicators"`

	Notion struct {
		BaseURL    string `yaml:"base_url" default:"https://api.notion.com" validate:"url"`
		Token      string `yaml:"token"`
		DatabaseID string `yaml:"database_id" validate:"required_with=Token"`
	} `yaml:"notion"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`

	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
		Job            string `yaml:"job" default:"fxsentinel"`
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"log"`

	Proxy string `yaml:"proxy"`
}

// SetDefaults fills the fields struct tags cannot express.
func (c *Config) SetDefaults() {
	if len(c.Pairs) == 0 {
		c.Pairs = append([]string(nil), DefaultPairs...)
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()

	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "apply defaults")
	}
	for i, p := range cfg.Pairs {
		cfg.Pairs[i] = strings.ToUpper(strings.TrimSpace(p))
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ALPHA_VANTAGE_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DB_ID"); v != "" {
		c.Notion.DatabaseID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SYNC_CRON"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FX_PAIRS"); v != "" {
		var pairs []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pairs = append(pairs, p)
			}
		}
		c.Pairs = pairs
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks required fields and parameter consistency. The first
// failing field is reported by its YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate config")
	}
	return errors.New(message(fieldErrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return field + " is required when " + strings.ToLower(fe.Param()) + " is set"
	case "unique":
		return field + " must not contain duplicates"
	case "len", "alpha", "uppercase":
		return field + " must be a six-letter currency pair, got " + quote(fe.Value())
	case "gtefield":
		return field + " must be at least " + fe.Param()
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return field + " failed validation: " + fe.Tag() + fe.Param()
	}
}

func quote(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return "value"
}

// ParsedPairs returns the configured pairs as model values. Call after
// Validate.
func (c *Config) ParsedPairs() ([]model.Pair, error) {
	pairs := make([]model.Pair, 0, len(c.Pairs))
	for _, s := range c.Pairs {
		p, err := model.ParsePair(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// NotionEnabled reports whether both Notion credentials are present.
func (c *Config) NotionEnabled() bool {
	return c.Notion.Token != "" && c.Notion.DatabaseID != ""
}

// TelegramEnabled reports whether a run summary can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
