package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	RateAPI    RateAPI    `mapstructure:"rateapi"`
	Favorites  Favorites  `mapstructure:"favorites"`
	Historical Historical `mapstructure:"historical"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// RateAPI holds the configuration for the external exchange-rate API.
type RateAPI struct {
	BaseURL        string  `mapstructure:"base_url"`
	ApiKey         string  `mapstructure:"apiKey"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Favorites holds the address the client uses to reach the favorites API.
type Favorites struct {
	BaseURL string `mapstructure:"base_url"`
}

// Historical holds the defaults for historical rate lookups.
type Historical struct {
	Date string `mapstructure:"date"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// Database holds the configuration for the database.
type Database struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with every default and env binding applied.
func New(path string) *viper.Viper {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.sqlite")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("rateapi.base_url", "https://api.freecurrencyapi.com/v1")
	v.SetDefault("rateapi.apiKey", "")
	v.SetDefault("rateapi.rate_limit", 10) // requests per second
	v.SetDefault("rateapi.rate_limit_burst", 5)
	v.SetDefault("favorites.base_url", "http://localhost:3000")
	v.SetDefault("historical.date", "2024-07-10")

	return v
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and env still apply.
func LoadConfig(path string) (Config, error) {
	return Load(New(path))
}

// Load unmarshals a prepared viper instance, e.g. one with CLI flags bound.
func Load(v *viper.Viper) (config Config, err error) {
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}
