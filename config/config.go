package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Browser    BrowserConfig
	Fetch      FetchConfig
	Match      MatchConfig
	RejectShop RejectShopConfig
	Woolworths WoolworthsConfig
	Output     OutputConfig
	Log        LogConfig
}

// BrowserConfig holds managed browser configuration
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	BinPath        string        `mapstructure:"bin_path"`
	PageTimeout    time.Duration `mapstructure:"page_timeout"`
	UserAgents     []string      `mapstructure:"user_agents"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
}

// FetchConfig holds pacing and retry configuration for page fetches
type FetchConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BackoffStep     time.Duration `mapstructure:"backoff_step"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	SettleMin       time.Duration `mapstructure:"settle_min"`
	SettleMax       time.Duration `mapstructure:"settle_max"`
	ScrollPauseDown time.Duration `mapstructure:"scroll_pause_down"`
	ScrollPauseUp   time.Duration `mapstructure:"scroll_pause_up"`
	RestartEvery    int           `mapstructure:"restart_every"`
}

// MatchConfig holds candidate matching configuration
type MatchConfig struct {
	ConfidenceFloor int  `mapstructure:"confidence_floor"`
	SimplifyQueries bool `mapstructure:"simplify_queries"`
}

// RejectShopConfig holds source site configuration
type RejectShopConfig struct {
	Catalog map[string]string `mapstructure:"catalog"`
}

// WoolworthsConfig holds comparison site configuration
type WoolworthsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// OutputConfig holds result file configuration
type OutputConfig struct {
	ProductsPath    string `mapstructure:"products_path"`
	ComparisonsPath string `mapstructure:"comparisons_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	// Environment variable settings
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadWithEnvFile loads a local .env file first, then the configuration.
func LoadWithEnvFile() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	return Load()
}

// loadEnvFile loads a local .env file into the environment when one exists.
// Variables already set in the environment keep their values.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Browser defaults
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin_path", "")
	v.SetDefault("browser.page_timeout", "30s")
	v.SetDefault("browser.user_agents", []string{}) // empty list uses the built-in Firefox pool
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)

	// Fetch defaults
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_step", "500ms")
	v.SetDefault("fetch.min_interval", "1s")
	v.SetDefault("fetch.settle_min", "2s")
	v.SetDefault("fetch.settle_max", "8s")
	v.SetDefault("fetch.scroll_pause_down", "3s")
	v.SetDefault("fetch.scroll_pause_up", "4s")
	v.SetDefault("fetch.restart_every", 3)

	// Match defaults
	v.SetDefault("match.confidence_floor", 60)
	v.SetDefault("match.simplify_queries", false)

	// Reject Shop defaults
	v.SetDefault("rejectshop.catalog", map[string]string{
		"30061292": "https://www.rejectshop.com.au/p/palmolive-naturals-shampoo-coconut-cream-350ml",
		"30113527": "https://www.rejectshop.com.au/p/whiskas-jellymeat-400g",
		"30115549": "https://www.rejectshop.com.au/p/twisties-party-bag-cheese-270g",
		"30043588": "https://www.rejectshop.com.au/p/quilton-aloe-vera-tissue-3ply-95pk",
		"30087959": "https://www.rejectshop.com.au/p/jif-surface-cleaner-lemon-scent-500ml",
	})

	// Woolworths defaults
	v.SetDefault("woolworths.base_url", "https://www.woolworths.com.au")

	// Output defaults
	v.SetDefault("output.products_path", "rejectshop_products.json")
	v.SetDefault("output.comparisons_path", "price_comparison.json")

	// Log defaults
	v.SetDefault("log.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch max_attempts must be at least 1, got: %d", config.Fetch.MaxAttempts)
	}

	if config.Fetch.SettleMax < config.Fetch.SettleMin {
		return fmt.Errorf("fetch settle_max must not be below settle_min, got: %v < %v", config.Fetch.SettleMax, config.Fetch.SettleMin)
	}

	if config.Match.ConfidenceFloor < 0 || config.Match.ConfidenceFloor > 100 {
		return fmt.Errorf("match confidence_floor must be between 0 and 100, got: %d", config.Match.ConfidenceFloor)
	}

	if len(config.RejectShop.Catalog) == 0 {
		return fmt.Errorf("rejectshop catalog must map at least one SKU to a product URL")
	}

	if config.Woolworths.BaseURL == "" {
		return fmt.Errorf("Woolworths base URL is required (set PRICELENS_WOOLWORTHS_BASE_URL)")
	}

	if config.Output.ProductsPath == "" || config.Output.ComparisonsPath == "" {
		return fmt.Errorf("output paths must not be empty")
	}

	return nil
}
