package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DotEnvFile is read, when present, before the process environment
var DotEnvFile = ".env"

// Client is the SDK and CLI configuration
type Client struct {
	API      APIConfig   `mapstructure:"api"`
	Database string      `mapstructure:"database"`
	HTTP     HTTPConfig  `mapstructure:"http"`
	Rate     RateConfig  `mapstructure:"rate"`
	Cache    CacheConfig `mapstructure:"cache"`
	Log      LogConfig   `mapstructure:"log"`
}

type APIConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	MaxIdle int           `mapstructure:"maxidle"`
}

type RateConfig struct {
	Limit float64 `mapstructure:"limit"`
	Burst int     `mapstructure:"burst"`
}

type CacheConfig struct {
	Dir    string        `mapstructure:"dir"`
	Memory bool          `mapstructure:"memory"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var clientDefaults = map[string]interface{}{
	"api.url":      "http://localhost:8080",
	"database":     "default",
	"http.timeout": 30 * time.Second,
	"http.maxidle": 128,
	"rate.limit":   0.0,
	"rate.burst":   1,
	"cache.ttl":    time.Duration(0),
	"log.level":    "warn",
	"log.format":   "text",
}

// LoadClient loads the client configuration with FLIN_ environment
// variables and an optional config file at path
func LoadClient(path string) (*Client, error) {
	var cfg Client
	if err := load("FLIN_", path, &cfg, clientDefaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration into target.
// prefix: Environment variable prefix (e.g. "FLIN_")
// path: optional config file (yaml, json, toml, ...)
// target: Pointer to the config struct to load into
//
// Sources, lowest precedence first: config file, .env, environment.
func Load(prefix, path string, target interface{}) error {
	return load(prefix, path, target, nil)
}

func load(prefix, path string, target interface{}, defaults map[string]interface{}) error {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 1. Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// 2. .env then environment; FLIN_API_URL -> api.url
	prefixUpper := strings.ToUpper(prefix)
	apply := func(key, value string) {
		key = strings.ToUpper(key)
		if !strings.HasPrefix(key, prefixUpper) {
			return
		}
		propKey := strings.TrimPrefix(key, prefixUpper)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		if propKey != "" {
			v.Set(propKey, value)
		}
	}

	for key, value := range readDotEnv(DotEnvFile) {
		apply(key, value)
	}
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		if len(pair) != 2 {
			continue
		}
		apply(pair[0], pair[1])
	}

	// 3. Unmarshal into struct
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// readDotEnv returns the entries of an env-format file, nil when missing
func readDotEnv(name string) map[string]string {
	if name == "" {
		return nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(name)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return nil
	}

	out := make(map[string]string)
	for _, key := range env.AllKeys() {
		out[key] = env.GetString(key)
	}
	return out
}
