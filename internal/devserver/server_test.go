package devserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, s *Server, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := New(nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRecordsQueryRequests(t *testing.T) {
	s := New(nil)

	w := post(t, s, "/shop/db/get", `{"model":"users","query":{}}`, map[string]string{
		"Authorization": "key",
		"X-Request-Id":  "req-1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operation":"get","model":"users"}`, w.Body.String())

	w = post(t, s, "/shop/db/object/delete", `{"model":"users","id":"u1"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	reqs := s.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "shop", reqs[0].Root)
	assert.Equal(t, "get", reqs[0].Operation)
	assert.False(t, reqs[0].Object)
	assert.Equal(t, "key", reqs[0].Headers["Authorization"])
	assert.Equal(t, "req-1", reqs[0].Headers["X-Request-Id"])
	assert.JSONEq(t, `{"model":"users","query":{}}`, string(reqs[0].Body))

	assert.Equal(t, "delete", reqs[1].Operation)
	assert.True(t, reqs[1].Object)
}

func TestStubs(t *testing.T) {
	s := New(nil)
	s.Stub("delete", http.StatusForbidden, map[string]interface{}{
		"errors": []map[string]string{{"code": "forbidden", "message": "no"}},
	})
	s.Stub("object.get", http.StatusOK, map[string]string{"_id": "u1"})

	w := post(t, s, "/shop/db/delete", `{}`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")

	w = post(t, s, "/shop/db/object/get", `{}`, nil)
	assert.JSONEq(t, `{"_id":"u1"}`, w.Body.String())

	// The builder endpoint is keyed separately from the object one
	w = post(t, s, "/shop/db/get", `{"model":"m"}`, nil)
	assert.JSONEq(t, `{"operation":"get","model":"m"}`, w.Body.String())

	s.Reset()
	assert.Empty(t, s.Requests())
	w = post(t, s, "/shop/db/delete", `{}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRejectsBadRequests(t *testing.T) {
	s := New(nil)

	w := post(t, s, "/shop/db/get", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request_body")

	w = post(t, s, "/shop/other/get", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shop/db/get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	assert.Empty(t, s.Requests())
}

func TestRequestsEndpoint(t *testing.T) {
	s := New(nil)
	post(t, s, "/shop/db/getSingle", `{"model":"users"}`, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/_requests", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var reqs []Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reqs))
	require.Len(t, reqs, 1)
	assert.Equal(t, "getSingle", reqs[0].Operation)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/_requests", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.Requests())
}

func TestParseQueryPath(t *testing.T) {
	tests := []struct {
		path      string
		root      string
		operation string
		object    bool
		ok        bool
	}{
		{"/app/db/get", "app", "get", false, true},
		{"/app/db/object/get", "app", "get", true, true},
		{"/app/db/", "", "", false, false},
		{"/app/db/object/", "", "", false, false},
		{"/app/kv/get", "", "", false, false},
		{"/", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			root, op, object, ok := parseQueryPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.root, root)
				assert.Equal(t, tt.operation, op)
				assert.Equal(t, tt.object, object)
			}
		})
	}
}
