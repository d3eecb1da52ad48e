package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skshohagmiah/flinbase/internal/logger"
	"github.com/skshohagmiah/flinbase/pkg/fetcher"
	"github.com/skshohagmiah/flinbase/pkg/flin"
)

func createTestShell(t *testing.T) (*Shell, *fetcher.Recorder, *bytes.Buffer) {
	t.Helper()
	rec := fetcher.NewRecorder()
	client, err := flin.NewClient(&flin.ClientOptions{Transport: rec, Logger: logger.Discard()})
	require.NoError(t, err)
	var out bytes.Buffer
	return New(client.DB("app"), &out), rec, &out
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
		err  bool
	}{
		{".model users", Command{Name: "model", Args: []string{"users"}, Rest: "users"}, false},
		{"  .filter  age > 18 ", Command{Name: "filter", Args: []string{"age", ">", "18"}, Rest: "age > 18"}, false},
		{".SORT name asc", Command{Name: "sort", Args: []string{"name", "asc"}, Rest: "name asc"}, false},
		{".show", Command{Name: "show", Args: []string{}, Rest: ""}, false},
		{"model users", Command{}, true},
		{".", Command{}, true},
		{"", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if tt.err {
				assert.ErrorIs(t, err, ErrNotCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunScript(t *testing.T) {
	sh, rec, out := createTestShell(t)
	script := `
.model users
.filter age > 18
.sort name asc
.limit 50
.page 2
.get count
.single
.exit
.get
`
	err := sh.Run(context.Background(), NewNonInteractive(strings.NewReader(script)))
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/app/db/get", calls[0].Path)
	assert.JSONEq(t, `{
		"model": "users",
		"query": {
			"expression": "age > 18",
			"lookups": null,
			"page": 2,
			"limit": 50,
			"sort": [{"field": "name", "direction": "asc"}],
			"omit": null,
			"group": null
		},
		"returnCountInfo": true
	}`, string(calls[0].Body))

	// Modifiers persist into the next terminal command
	assert.Equal(t, "/app/db/getSingle", calls[1].Path)
	assert.Contains(t, string(calls[1].Body), `"limit":50`)
	assert.NotContains(t, out.String(), "error:")
}

func TestCommandsNeedModel(t *testing.T) {
	sh, rec, _ := createTestShell(t)
	_, err := sh.Exec(context.Background(), ".get")
	assert.ErrorContains(t, err, "no model selected")
	assert.Empty(t, rec.Calls())
}

func TestModifierErrorsAreReported(t *testing.T) {
	sh, rec, out := createTestShell(t)
	script := ".model users\n.limit 0\n.get\n.reset\n.limit ten\n.get\n"

	require.NoError(t, sh.Run(context.Background(), NewNonInteractive(strings.NewReader(script))))

	text := out.String()
	assert.Contains(t, text, "error: flin: limit: n: invalid limit")
	assert.Contains(t, text, `error: .limit: "ten" is not an integer`)

	// The first .get is blocked by the pending error, the second runs
	require.Len(t, rec.Calls(), 1)
}

func TestDeleteAndSearch(t *testing.T) {
	sh, rec, out := createTestShell(t)
	rec.Stub("POST", "/app/db/delete", fetcher.Result{Data: json.RawMessage(`{"count":4}`)})
	ctx := context.Background()

	_, err := sh.Exec(ctx, ".model users")
	require.NoError(t, err)

	_, err = sh.Exec(ctx, ".delete")
	assert.ErrorIs(t, err, flin.ErrMissingFilter)

	_, err = sh.Exec(ctx, ".filter status == 'gone'")
	require.NoError(t, err)
	_, err = sh.Exec(ctx, ".delete")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"count": 4`)

	_, err = sh.Exec(ctx, ".search ada lovelace")
	require.NoError(t, err)
	call, _ := rec.Last()
	assert.Equal(t, "/app/db/searchText", call.Path)
	assert.Contains(t, string(call.Body), `"text":"ada lovelace"`)

	_, err = sh.Exec(ctx, ".random 3")
	require.NoError(t, err)
	call, _ = rec.Last()
	assert.Contains(t, string(call.Body), `"count":3`)
}

func TestGroupAndShow(t *testing.T) {
	sh, _, out := createTestShell(t)
	ctx := context.Background()

	for _, line := range []string{".model orders", ".group country, city", ".omit password ssn", ".lookup customer", ".show"} {
		_, err := sh.Exec(ctx, line)
		require.NoError(t, err, line)
	}

	var shown struct {
		Model string `json:"model"`
		Query struct {
			Group   []string `json:"group"`
			Omit    []string `json:"omit"`
			Lookups []string `json:"lookups"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, "orders", shown.Model)
	assert.Equal(t, []string{"country", "city"}, shown.Query.Group)
	assert.Equal(t, []string{"password", "ssn"}, shown.Query.Omit)
	assert.Equal(t, []string{"customer"}, shown.Query.Lookups)
}

func TestUnknownCommandAndHelp(t *testing.T) {
	sh, _, out := createTestShell(t)
	_, err := sh.Exec(context.Background(), ".drop")
	assert.ErrorContains(t, err, "unknown command .drop")

	_, err = sh.Exec(context.Background(), ".help")
	require.NoError(t, err)
	assert.Contains(t, out.String(), ".model")
	assert.Contains(t, out.String(), ".search")

	stop, err := sh.Exec(context.Background(), ".quit")
	require.NoError(t, err)
	assert.True(t, stop)
}

func TestPromptAndCompletion(t *testing.T) {
	sh, _, _ := createTestShell(t)
	assert.Equal(t, "flin> ", sh.prompt())
	_, err := sh.Exec(context.Background(), ".model users")
	require.NoError(t, err)
	assert.Equal(t, "flin:users> ", sh.prompt())

	assert.Equal(t, []string{".sort ", ".show ", ".single ", ".search "}, complete(".s"))
}
