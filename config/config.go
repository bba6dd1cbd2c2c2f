package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"
)

const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"

	StrategyStructural = "structural"
	StrategyAssisted   = "assisted"
)

type SourceConfig struct {
	ID       string `yaml:"id"`
	Strategy string `yaml:"strategy"`
}

type BrowserConfig struct {
	Driver         string        `yaml:"driver"`
	Headless       bool          `yaml:"headless"`
	UserAgent      string        `yaml:"user_agent"`
	LoadTimeout    time.Duration `yaml:"load_timeout"`
	ElementTimeout time.Duration `yaml:"element_timeout"`
	Settle         time.Duration `yaml:"settle"`
	ScreenshotDir  string        `yaml:"screenshot_dir"`
}

type LLMConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
	PageChars int           `yaml:"page_chars"`
}

type Config struct {
	Port        string         `yaml:"port"`
	CORSOrigin  string         `yaml:"cors_origin"`
	RatePerSec  float64        `yaml:"rate_per_sec"`
	RateBurst   int            `yaml:"rate_burst"`
	TopN        int            `yaml:"top_n"`
	MaxListings int            `yaml:"max_listings"`
	Browser     BrowserConfig  `yaml:"browser"`
	Sources     []SourceConfig `yaml:"sources"`
	LLM         LLMConfig      `yaml:"llm"`
	SentryDSN   string         `yaml:"sentry_dsn"`
	LogLevel    string         `yaml:"log_level"`
	LogFormat   string         `yaml:"log_format"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:        "5000",
		CORSOrigin:  "*",
		RatePerSec:  1,
		RateBurst:   3,
		TopN:        5,
		MaxListings: 10,
		Browser: BrowserConfig{
			Driver:         DriverChromedp,
			Headless:       true,
			LoadTimeout:    30 * time.Second,
			ElementTimeout: 10 * time.Second,
		},
		Sources: []SourceConfig{
			{ID: "CarGurus", Strategy: StrategyStructural},
			{ID: "AutoTempest", Strategy: StrategyStructural},
		},
		LLM: LLMConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o-mini",
			MaxTokens: 4096,
			Timeout:   60 * time.Second,
			PageChars: 50000,
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, eris.Wrapf(err, "parse config %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.CORSOrigin, "CORS_ORIGIN")
	setString(&c.SentryDSN, "SENTRY_DSN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Browser.Driver, "BROWSER_DRIVER")
	setString(&c.Browser.UserAgent, "BROWSER_USER_AGENT")
	setString(&c.Browser.ScreenshotDir, "SCREENSHOT_DIR")
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL")

	if v := os.Getenv("TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return eris.Wrapf(err, "TOP_N=%q", v)
		}
		c.TopN = n
	}
	if v := os.Getenv("BROWSER_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return eris.Wrapf(err, "BROWSER_HEADLESS=%q", v)
		}
		c.Browser.Headless = b
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"BROWSER_LOAD_TIMEOUT", &c.Browser.LoadTimeout},
		{"BROWSER_ELEMENT_TIMEOUT", &c.Browser.ElementTimeout},
		{"BROWSER_SETTLE", &c.Browser.Settle},
		{"LLM_TIMEOUT", &c.LLM.Timeout},
	} {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return eris.Wrapf(err, "%s=%q", d.key, v)
		}
		*d.dst = parsed
	}

	// SOURCES=CarGurus:assisted,AutoTempest
	if v := os.Getenv("SOURCES"); v != "" {
		var sources []SourceConfig
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, strategy, found := strings.Cut(part, ":")
			if !found {
				strategy = StrategyStructural
			}
			sources = append(sources, SourceConfig{ID: strings.TrimSpace(id), Strategy: strings.TrimSpace(strategy)})
		}
		c.Sources = sources
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.TopN <= 0:
		return eris.Errorf("top_n must be positive, got %d", c.TopN)
	case c.MaxListings <= 0:
		return eris.Errorf("max_listings must be positive, got %d", c.MaxListings)
	case c.Browser.LoadTimeout <= 0:
		return eris.New("browser load_timeout must be positive")
	case c.Browser.ElementTimeout <= 0:
		return eris.New("browser element_timeout must be positive")
	case c.Browser.Settle < 0:
		return eris.New("browser settle must not be negative")
	case c.Browser.Driver != DriverChromedp && c.Browser.Driver != DriverPlaywright:
		return eris.Errorf("unknown browser driver %q", c.Browser.Driver)
	case len(c.Sources) == 0:
		return eris.New("no sources configured")
	case c.LLM.PageChars <= 0:
		return eris.Errorf("llm page_chars must be positive, got %d", c.LLM.PageChars)
	}
	for _, s := range c.Sources {
		if s.Strategy != StrategyStructural && s.Strategy != StrategyAssisted {
			return eris.Errorf("source %s: unknown strategy %q", s.ID, s.Strategy)
		}
		if s.Strategy == StrategyAssisted && c.LLM.APIKey == "" {
			return eris.Errorf("source %s: assisted strategy needs an LLM api key", s.ID)
		}
	}
	return nil
}

// NeedsLLM reports whether any configured source uses the assisted strategy.
func (c *Config) NeedsLLM() bool {
	for _, s := range c.Sources {
		if s.Strategy == StrategyAssisted {
			return true
		}
	}
	return false
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
