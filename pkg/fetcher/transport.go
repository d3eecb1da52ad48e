package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Transport is the capability the SDK consumes from its environment: one
// call per HTTP verb, each returning the normalized {data, errors} envelope.
// Implementations never return transport failures as Go errors.
type Transport interface {
	Get(ctx context.Context, path string, opts *RequestOptions) Result
	Post(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result
	Put(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result
	Delete(ctx context.Context, path string, body interface{}, opts *RequestOptions) Result
}

// RequestOptions carries the optional parts of a request
type RequestOptions struct {
	Query   url.Values
	Headers http.Header

	// CacheTTL > 0 allows the response to be served from and stored in the
	// local response cache.
	CacheTTL time.Duration

	// Operation labels metrics and logs (e.g. "get", "object.delete")
	Operation string
}

func (o *RequestOptions) operation(method string) string {
	if o == nil || o.Operation == "" {
		return method
	}
	return o.Operation
}

func (o *RequestOptions) cacheTTL() time.Duration {
	if o == nil {
		return 0
	}
	return o.CacheTTL
}
