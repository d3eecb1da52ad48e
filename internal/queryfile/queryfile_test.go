package queryfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skshohagmiah/flinbase/internal/logger"
	"github.com/skshohagmiah/flinbase/pkg/fetcher"
	"github.com/skshohagmiah/flinbase/pkg/flin"
)

const usersQuery = `
model: users
operation: get
filter: "age > 18"
lookups:
  - profile
  - from: orders
    localField: _id
    foreignField: userId
    as: orders
sort:
  - {field: name, direction: asc}
  - {field: age, direction: desc}
limit: 50
page: 2
omit: [password]
group: [country, city]
returnCountInfo: true
`

func createTestDB(t *testing.T) (*flin.Database, *fetcher.Recorder) {
	t.Helper()
	rec := fetcher.NewRecorder()
	client, err := flin.NewClient(&flin.ClientOptions{Transport: rec, Logger: logger.Discard()})
	require.NoError(t, err)
	return client.DB("app"), rec
}

func TestParseDocument(t *testing.T) {
	docs, err := Parse(strings.NewReader(usersQuery))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	d := docs[0]
	assert.Equal(t, "users", d.Model)
	assert.Equal(t, "get", d.Operation)
	require.Len(t, d.Lookups, 2)
	assert.Equal(t, flin.FieldLookup("profile"), d.Lookups[0].Spec)
	assert.Equal(t, flin.ComplexLookup{From: "orders", LocalField: "_id", ForeignField: "userId", As: "orders"}, d.Lookups[1].Spec)
	require.NotNil(t, d.Group)
	assert.Equal(t, flin.GroupFields{"country", "city"}, d.Group.Spec)
	require.NotNil(t, d.Limit)
	assert.Equal(t, 50, *d.Limit)
	assert.True(t, d.ReturnCountInfo)
}

func TestApplyOrder(t *testing.T) {
	docs, err := Parse(strings.NewReader(usersQuery))
	require.NoError(t, err)

	db, _ := createTestDB(t)
	qb := db.Model("users")
	require.NoError(t, docs[0].Apply(qb))

	d := qb.Descriptor()
	assert.Equal(t, "age > 18", *d.Expression)
	assert.Equal(t, []flin.SortEntry{{Field: "name", Direction: "asc"}, {Field: "age", Direction: "desc"}}, d.Sort)
	assert.Equal(t, 2, *d.Page)
	assert.Equal(t, 50, *d.Limit)
	assert.Equal(t, []string{"password"}, d.Omit)
	assert.Len(t, d.Lookups, 2)
}

func TestExecute(t *testing.T) {
	docs, err := Parse(strings.NewReader(usersQuery))
	require.NoError(t, err)

	db, rec := createTestDB(t)
	out, err := docs[0].Execute(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "get", out.Operation)
	assert.False(t, out.Failed())
	assert.Nil(t, out.Delete)

	call, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "/app/db/get", call.Path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(call.Body, &body))
	assert.Equal(t, true, body["returnCountInfo"])
	assert.Equal(t, "users", body["model"])
}

func TestExecuteWriteOperations(t *testing.T) {
	input := `
model: users
operation: updateFields
filter: "_id == 'u1'"
fieldUpdates:
  - {field: visits, type: increment, value: 1}
---
model: orders
operation: compute
group: country
computations:
  - {name: total, type: sum, compute: price}
---
model: users
operation: create
values:
  name: Ada
  tags: [admin]
---
model: users
operation: delete
filter: "age == 0"
`
	docs, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 4)

	db, rec := createTestDB(t)
	rec.Stub("POST", "/app/db/delete", fetcher.Result{Data: json.RawMessage(`{"count":2}`)})

	for _, d := range docs {
		_, err := d.Execute(context.Background(), db)
		require.NoError(t, err, d.Operation)
	}

	calls := rec.Calls()
	require.Len(t, calls, 4)
	assert.Contains(t, string(calls[0].Body), `"fieldUpdates":[{"field":"visits","type":"increment","value":1}]`)
	assert.Contains(t, string(calls[1].Body), `"group":"country"`)
	assert.Contains(t, string(calls[2].Body), `"values":{"name":"Ada","tags":["admin"]}`)
	assert.Equal(t, "/app/db/delete", calls[3].Path)

	out, err := docs[3].Execute(context.Background(), db)
	require.NoError(t, err)
	require.NotNil(t, out.Delete)
	require.NotNil(t, out.Delete.Info.Count)
	assert.Equal(t, int64(2), *out.Delete.Info.Count)
}

func TestExecuteValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"zero limit", "model: users\noperation: get\nlimit: 0\n", flin.ErrInvalidLimit},
		{"bad direction", "model: users\noperation: get\nsort: [{field: a, direction: up}]\n", flin.ErrInvalidEnum},
		{"delete without filter", "model: users\noperation: delete\n", flin.ErrMissingFilter},
		{"random without count", "model: users\noperation: getRandom\n", flin.ErrNotPositive},
		{"update fields missing", "model: users\noperation: updateFields\nfilter: a == 1\n", flin.ErrMissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)

			db, rec := createTestDB(t)
			_, err = docs[0].Execute(context.Background(), db)
			assert.ErrorIs(t, err, tt.kind)
			assert.Empty(t, rec.Calls())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "no query documents"},
		{"no model", "operation: get\n", "model is required"},
		{"no operation", "model: users\n", "operation is required"},
		{"unknown operation", "model: users\noperation: truncate\n", `unknown operation "truncate"`},
		{"unknown field", "model: users\noperation: get\nfilters: x\n", "failed to parse YAML"},
		{"bad lookup", "model: users\noperation: get\nlookups: [[a]]\n", "lookup must be"},
		{"bad group", "model: users\noperation: get\ngroup: {a: b}\n", "group must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersQuery), 0o644))

	docs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
