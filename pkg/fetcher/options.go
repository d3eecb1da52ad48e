package fetcher

import (
	"log/slog"
	"time"
)

// ResponseCache stores successful response bodies keyed by request.
// internal/cache.Store satisfies it.
type ResponseCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// Options for creating a Fetcher
type Options struct {
	// BaseURL of the backend API, e.g. "https://api.example.com"
	BaseURL string

	// APIKey is sent in the Authorization header when set
	APIKey string

	// Connection reuse settings
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration

	// Timeout bounds a whole request including reading the body
	Timeout time.Duration

	// Client-side throttle; zero disables it
	RequestsPerSecond float64
	Burst             int

	// Cache is optional
	Cache ResponseCache

	// OnSessionInvalid is called after the backend reports an invalid session
	OnSessionInvalid func()

	Logger *slog.Logger
}

// DefaultOptions returns default fetcher options
func DefaultOptions(baseURL string) *Options {
	return &Options{
		BaseURL:             baseURL,
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     5 * time.Minute,
		DialTimeout:         5 * time.Second,
		Timeout:             30 * time.Second,
	}
}
