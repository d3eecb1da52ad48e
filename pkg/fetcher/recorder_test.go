package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCapturesCalls(t *testing.T) {
	rec := NewRecorder()

	res := rec.Post(context.Background(), "/app/db/get", map[string]string{"model": "users"}, &RequestOptions{
		Operation: "get",
		CacheTTL:  time.Second,
	})
	assert.True(t, res.OK())

	rec.Get(context.Background(), "/health", nil)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/app/db/get", calls[0].Path)
	assert.JSONEq(t, `{"model":"users"}`, string(calls[0].Body))
	assert.Equal(t, "get", calls[0].Options.Operation)
	assert.Equal(t, time.Second, calls[0].Options.CacheTTL)
	assert.Nil(t, calls[1].Body)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "/health", last.Path)

	rec.Reset()
	_, ok = rec.Last()
	assert.False(t, ok)
}

func TestRecorderStubs(t *testing.T) {
	rec := NewRecorder()
	rec.Default(Result{Data: json.RawMessage(`"fallback"`)})
	rec.Stub(http.MethodPost, "/app/db/delete", Result{Errors: &ErrorInfo{Status: 403, StatusText: "Forbidden"}})

	res := rec.Post(context.Background(), "/app/db/delete", nil, nil)
	require.NotNil(t, res.Errors)
	assert.Equal(t, 403, res.Errors.Status)

	res = rec.Put(context.Background(), "/app/db/delete", nil, nil)
	assert.Equal(t, `"fallback"`, string(res.Data))

	res = rec.Delete(context.Background(), "/anything", nil, nil)
	assert.Equal(t, `"fallback"`, string(res.Data))
}

func TestRecorderRejectsUnmarshalableBody(t *testing.T) {
	rec := NewRecorder()
	res := rec.Post(context.Background(), "/x", map[string]interface{}{"f": func() {}}, nil)
	require.NotNil(t, res.Errors)
	assert.True(t, res.Errors.HasCode(CodeInvalidBody))
	assert.Empty(t, rec.Calls())
}
