package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error origins
const (
	OriginClient = "client_error"
	OriginServer = "server_error"
)

// Error codes produced by the fetcher itself
const (
	CodeNetworkError = "network_error"
	CodeHTTPError    = "http_error"
	CodeRateLimited  = "rate_limited"
	CodeInvalidBody  = "invalid_request_body"
)

// Session-invalidating codes returned by the backend
const (
	CodeInvalidSession      = "invalid_session"
	CodeMissingSessionToken = "missing_session_token"
)

// ErrNoData is returned by Result.Decode when the response carried no body
var ErrNoData = errors.New("result has no data")

// Result is the normalized response envelope of every request.
// Exactly one of Data and Errors is meaningful: on success Errors is nil and
// Data holds the raw response payload (nil when the body was empty).
type Result struct {
	Data   json.RawMessage `json:"data"`
	Errors *ErrorInfo      `json:"errors"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Status     int          `json:"status"`
	StatusText string       `json:"statusText"`
	Items      []ErrorEntry `json:"items"`
}

// ErrorEntry is a single error reported by the backend or the fetcher
type ErrorEntry struct {
	Origin  string          `json:"origin"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// OK reports whether the request succeeded
func (r Result) OK() bool {
	return r.Errors == nil
}

// Decode unmarshals the payload into v
func (r Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// HasCode reports whether any entry carries the given code
func (e *ErrorInfo) HasCode(code string) bool {
	if e == nil {
		return false
	}
	for _, item := range e.Items {
		if item.Code == code {
			return true
		}
	}
	return false
}

// Error implements the error interface so callers may wrap an ErrorInfo
func (e *ErrorInfo) Error() string {
	if e == nil {
		return "<nil>"
	}
	msgs := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msgs = append(msgs, fmt.Sprintf("%s: %s", item.Code, item.Message))
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, strings.Join(msgs, "; "))
}

// IsSessionError reports whether the backend rejected the session token
func (e *ErrorInfo) IsSessionError() bool {
	return e.HasCode(CodeInvalidSession) || e.HasCode(CodeMissingSessionToken)
}

func clientFailure(code string, err error) Result {
	return Result{
		Errors: &ErrorInfo{
			Status:     0,
			StatusText: "Network Error",
			Items: []ErrorEntry{{
				Origin:  OriginClient,
				Code:    code,
				Message: err.Error(),
			}},
		},
	}
}

// parseErrorItems extracts error entries from a non-2xx body.
// Accepts {"errors":[...]}, {"items":[...]} or a bare list.
func parseErrorItems(body []byte) []ErrorEntry {
	if len(body) == 0 {
		return nil
	}

	var wrapped struct {
		Errors []ErrorEntry `json:"errors"`
		Items  []ErrorEntry `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if len(wrapped.Errors) > 0 {
			return wrapped.Errors
		}
		if len(wrapped.Items) > 0 {
			return wrapped.Items
		}
	}

	var list []ErrorEntry
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return list
	}

	return []ErrorEntry{{
		Origin:  OriginServer,
		Code:    CodeHTTPError,
		Message: strings.TrimSpace(string(body)),
	}}
}
