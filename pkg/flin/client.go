package flin

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skshohagmiah/flinbase/internal/cache"
	"github.com/skshohagmiah/flinbase/internal/logger"
	"github.com/skshohagmiah/flinbase/pkg/fetcher"
)

// Client is the entry point of the SDK. It owns the transport and the
// optional local response cache and hands out Database handles.
type Client struct {
	transport fetcher.Transport
	fetcher   *fetcher.Fetcher // nil when a custom transport is used
	cache     *cache.Store
	cacheTTL  time.Duration
	log       *slog.Logger
}

// ClientOptions for creating a new client
type ClientOptions struct {
	// BaseURL of the backend API
	BaseURL string

	// APIKey is sent in the Authorization header
	APIKey string

	// HTTP connection settings
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	Timeout             time.Duration

	// Client-side throttle; zero disables it
	RequestsPerSecond float64
	Burst             int

	// Local response cache for read operations. CacheTTL > 0 enables it;
	// CacheDir selects an on-disk store, otherwise it is kept in memory.
	CacheTTL time.Duration
	CacheDir string

	// OnSessionInvalid is called when the backend rejects the session token
	OnSessionInvalid func()

	// Transport replaces the HTTP fetcher (dry runs, tests). When set the
	// connection, throttle and cache settings are ignored.
	Transport fetcher.Transport

	Logger *slog.Logger
}

// DefaultOptions returns default client options
func DefaultOptions(baseURL string) *ClientOptions {
	return &ClientOptions{
		BaseURL:             baseURL,
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     5 * time.Minute,
		DialTimeout:         5 * time.Second,
		Timeout:             30 * time.Second,
	}
}

// NewClient creates a new client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}

	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}

	client := &Client{log: log}

	if opts.Transport != nil {
		client.transport = opts.Transport
		return client, nil
	}

	if opts.BaseURL == "" {
		return nil, errors.New("either BaseURL or Transport must be provided")
	}

	if opts.CacheTTL > 0 {
		var (
			store *cache.Store
			err   error
		)
		if opts.CacheDir != "" {
			store, err = cache.Open(opts.CacheDir)
		} else {
			store, err = cache.OpenMemory()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open response cache: %w", err)
		}
		client.cache = store
		client.cacheTTL = opts.CacheTTL
	}

	fopts := &fetcher.Options{
		BaseURL:             opts.BaseURL,
		APIKey:              opts.APIKey,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
		DialTimeout:         opts.DialTimeout,
		Timeout:             opts.Timeout,
		RequestsPerSecond:   opts.RequestsPerSecond,
		Burst:               opts.Burst,
		OnSessionInvalid:    opts.OnSessionInvalid,
		Logger:              log,
	}
	if client.cache != nil {
		fopts.Cache = client.cache
	}

	f, err := fetcher.New(fopts)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	client.fetcher = f
	client.transport = f

	return client, nil
}

// DB returns a handle on the named database. The name is the resource root
// of every endpoint: /{name}/db/...
func (c *Client) DB(name string) *Database {
	return &Database{client: c, name: name}
}

// Transport returns the transport requests are sent through
func (c *Client) Transport() fetcher.Transport {
	return c.transport
}

// SetSession sets the session token sent with every request
func (c *Client) SetSession(token string) {
	if c.fetcher != nil {
		c.fetcher.SetSession(token)
	}
}

// Session returns the current session token
func (c *Client) Session() string {
	if c.fetcher == nil {
		return ""
	}
	return c.fetcher.Session()
}

// ClearSession drops the session token
func (c *Client) ClearSession() {
	if c.fetcher != nil {
		c.fetcher.ClearSession()
	}
}

// PurgeCache drops every cached response
func (c *Client) PurgeCache() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Purge()
}

// Close releases the response cache
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close()
	c.cache = nil
	return err
}
