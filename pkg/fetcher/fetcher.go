package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/skshohagmiah/flinbase/internal/cache"
	"github.com/skshohagmiah/flinbase/internal/logger"
	"github.com/skshohagmiah/flinbase/internal/metrics"
)

// Header names
const (
	HeaderAuthorization = "Authorization"
	HeaderSession       = "Session"
	HeaderRequestID     = "X-Request-Id"
)

// Ensure Fetcher implements Transport.
var _ Transport = (*Fetcher)(nil)

// Fetcher is the net/http Transport. It is safe for concurrent use.
type Fetcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      ResponseCache
	session    session
	onInvalid  func()
	log        *slog.Logger
}

// New creates a Fetcher
func New(opts *Options) (*Fetcher, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts.RequestsPerSecond < 0 || opts.Burst < 0 {
		return nil, errors.New("invalid rate limit configuration")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = opts.MaxIdleConns
	transport.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
	transport.IdleConnTimeout = opts.IdleConnTimeout
	if opts.DialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	f := &Fetcher{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		cache:     opts.Cache,
		onInvalid: opts.OnSessionInvalid,
		log:       opts.Logger,
	}
	if f.log == nil {
		f.log = logger.Get()
	}

	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst == 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return f, nil
}

// BaseURL returns the API root requests are sent to
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// SetSession stores the session token sent with every request
func (f *Fetcher) SetSession(token string) {
	f.session.set(token)
}

// Session returns the held session token
func (f *Fetcher) Session() string {
	return f.session.get()
}

// ClearSession drops the held session token
func (f *Fetcher) ClearSession() {
	f.session.clear()
}

func (f *Fetcher) Get(ctx context.Context, path string, opts *RequestOptions) Result {
	return f.do(ctx, http.MethodGet, path, nil, opts)
}

func (f *Fetcher) Post(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return f.do(ctx, http.MethodPost, path, body, opts)
}

func (f *Fetcher) Put(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return f.do(ctx, http.MethodPut, path, body, opts)
}

func (f *Fetcher) Delete(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result {
	return f.do(ctx, http.MethodDelete, path, body, opts)
}

func (f *Fetcher) do(ctx context.Context, method, path string, body interface{}, opts *RequestOptions) Result {
	operation := opts.operation(method)
	requestID := uuid.New().String()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return clientFailure(CodeInvalidBody, fmt.Errorf("failed to marshal request body: %w", err))
		}
	}

	target := f.url(path, opts)

	ttl := opts.cacheTTL()
	var cacheKey string
	if ttl > 0 && f.cache != nil {
		cacheKey = cache.Key(method, target, f.cacheScope(opts), payload)
		if data, err := f.cache.Get(cacheKey); err == nil {
			metrics.CacheHit(true)
			f.log.Debug("served from cache", "request_id", requestID, "operation", operation, "path", path)
			return Result{Data: data}
		}
		metrics.CacheHit(false)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			metrics.ObserveRequest(operation, method, 0, 0)
			return clientFailure(CodeRateLimited, err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return clientFailure(CodeNetworkError, fmt.Errorf("failed to create request: %w", err))
	}
	f.setHeaders(req, requestID, payload != nil, opts)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(operation, method, 0, time.Since(start))
		f.log.Debug("request failed", "request_id", requestID, "method", method, "path", path, "error", err)
		return clientFailure(CodeNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.ObserveRequest(operation, method, resp.StatusCode, elapsed)
	if err != nil {
		return clientFailure(CodeNetworkError, fmt.Errorf("failed to read response: %w", err))
	}

	f.log.Debug("request completed",
		"request_id", requestID,
		"operation", operation,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", elapsed,
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result := Result{}
		if len(bytes.TrimSpace(respBody)) > 0 {
			result.Data = json.RawMessage(respBody)
		}
		if cacheKey != "" && result.Data != nil {
			if err := f.cache.Set(cacheKey, respBody, ttl); err != nil {
				f.log.Warn("failed to cache response", "request_id", requestID, "error", err)
			}
		}
		return result
	}

	info := &ErrorInfo{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Items:      parseErrorItems(respBody),
	}
	if len(info.Items) == 0 {
		info.Items = []ErrorEntry{{
			Origin:  OriginServer,
			Code:    CodeHTTPError,
			Message: info.StatusText,
		}}
	}

	if info.IsSessionError() {
		f.invalidateSession(requestID)
	}

	return Result{Errors: info}
}

func (f *Fetcher) url(path string, opts *RequestOptions) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := f.baseURL + path
	if opts != nil && len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}
	return target
}

func (f *Fetcher) setHeaders(req *http.Request, requestID string, hasBody bool, opts *RequestOptions) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if f.apiKey != "" {
		req.Header.Set(HeaderAuthorization, f.apiKey)
	}
	if token := f.session.get(); token != "" {
		req.Header.Set(HeaderSession, token)
	}
	if opts != nil {
		for k, values := range opts.Headers {
			req.Header.Del(k)
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
	}
}

// cacheScope is the identity a cached response belongs to: the headers
// that authenticate the request
func (f *Fetcher) cacheScope(opts *RequestOptions) string {
	apiKey, token := f.apiKey, f.session.get()
	if opts != nil {
		if v := opts.Headers.Get(HeaderAuthorization); v != "" {
			apiKey = v
		}
		if v := opts.Headers.Get(HeaderSession); v != "" {
			token = v
		}
	}
	return apiKey + "\x00" + token
}

func (f *Fetcher) invalidateSession(requestID string) {
	metrics.SessionInvalidationsTotal.Inc()
	had := f.session.clear()
	f.log.Warn("session invalidated by backend", "request_id", requestID, "had_session", had)
	if f.onInvalid != nil {
		f.onInvalid()
	}
}
