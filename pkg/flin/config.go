package flin

import (
	"os"

	"github.com/skshohagmiah/flinbase/internal/config"
	"github.com/skshohagmiah/flinbase/internal/logger"
)

// OptionsFromConfig converts loaded configuration into client options
func OptionsFromConfig(cfg *config.Client) *ClientOptions {
	opts := DefaultOptions(cfg.API.URL)
	opts.APIKey = cfg.API.Key
	if cfg.HTTP.Timeout > 0 {
		opts.Timeout = cfg.HTTP.Timeout
	}
	if cfg.HTTP.MaxIdle > 0 {
		opts.MaxIdleConns = cfg.HTTP.MaxIdle
		opts.MaxIdleConnsPerHost = min(opts.MaxIdleConnsPerHost, cfg.HTTP.MaxIdle)
	}
	opts.RequestsPerSecond = cfg.Rate.Limit
	opts.Burst = cfg.Rate.Burst
	opts.CacheTTL = cfg.Cache.TTL
	if !cfg.Cache.Memory {
		opts.CacheDir = cfg.Cache.Dir
	}
	opts.Logger = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}, os.Stderr)
	return opts
}

// NewClientFromEnv builds a client from FLIN_* environment variables, an
// optional .env file and an optional config file at path. The configured
// database is returned alongside.
func NewClientFromEnv(path string) (*Client, *Database, error) {
	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, nil, err
	}
	client, err := NewClient(OptionsFromConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return client, client.DB(cfg.Database), nil
}
