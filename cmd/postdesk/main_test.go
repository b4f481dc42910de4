package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/postdesk/internal/sandbox"
	"github.com/Ratio1/postdesk/pkg/posts"
)

const quietConfig = `
prefs:
  backend: memory
logging:
  level: error
`

// run executes the root command with a private config file and returns
// everything it printed.
func run(t *testing.T, ctx context.Context, cfg string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POSTDESK_PREFS_BACKEND", "")
	t.Setenv("POSTDESK_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "postdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", path}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func newAPI(t *testing.T) string {
	t.Helper()
	store, err := sandbox.NewStore("")
	require.NoError(t, err)
	srv := httptest.NewServer(sandbox.NewRouter(store, sandbox.Options{Prefix: "/api"}))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestListJSON(t *testing.T) {
	base := newAPI(t)
	out, err := run(t, context.Background(), quietConfig, "list", "--base-url", base, "--json")
	require.NoError(t, err)

	var got []posts.Post
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []posts.Post{
		{ID: 1, Title: "First post", Content: "This is the first post."},
		{ID: 2, Title: "Second post", Content: "This is the second post."},
	}, got)
}

func TestListTable(t *testing.T) {
	base := newAPI(t)
	out, err := run(t, context.Background(), quietConfig, "list", "--base-url", base)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "First post")
	assert.Contains(t, lines[2], "Second post")
}

func TestCreateUpdateDelete(t *testing.T) {
	base := newAPI(t)
	ctx := context.Background()

	out, err := run(t, ctx, quietConfig, "create", "--base-url", base, "--json", "--title", "T", "--content", "C")
	require.NoError(t, err)
	var created posts.Post
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, posts.Post{ID: 3, Title: "T", Content: "C", Author: posts.DefaultAuthor}, created)

	out, err = run(t, ctx, quietConfig, "update", "3", "--base-url", base, "--json",
		"--title", "T2", "--content", "C2", "--author", "Ada", "--date", "2024-05-01")
	require.NoError(t, err)
	var updated posts.Post
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, posts.Post{ID: 3, Title: "T2", Content: "C2", Author: "Ada", Date: "2024-05-01"}, updated)

	out, err = run(t, ctx, quietConfig, "get", "3", "--base-url", base)
	require.NoError(t, err)
	assert.Contains(t, out, "T2")
	assert.Contains(t, out, "2024-05-01")

	out, err = run(t, ctx, quietConfig, "delete", "3", "--base-url", base)
	require.NoError(t, err)
	assert.Equal(t, "deleted post 3\n", out)

	_, err = run(t, ctx, quietConfig, "get", "3", "--base-url", base)
	require.Error(t, err)
	assert.ErrorIs(t, err, posts.ErrNotFound)
}

func TestCreateRejectedByAPI(t *testing.T) {
	base := newAPI(t)
	_, err := run(t, context.Background(), quietConfig, "create", "--base-url", base, "--title", "only")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestInvalidID(t *testing.T) {
	_, err := run(t, context.Background(), quietConfig, "delete", "abc", "--base-url", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid post id "abc"`)
}

func TestFallsBackToMock(t *testing.T) {
	t.Setenv("POSTDESK_MODE", "mock")
	t.Setenv("POSTDESK_API_URL", "")
	t.Setenv("POSTDESK_MOCK_SEED", "")

	out, err := run(t, context.Background(), quietConfig, "create", "--title", "T", "--content", "C")
	require.NoError(t, err)
	assert.Contains(t, out, posts.DefaultAuthor)
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, context.Background(), "prefs:\n  backend: bogus\n", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid prefs backend")
}

func TestServeStopsWithContext(t *testing.T) {
	cfg := quietConfig + `
web:
  addr: 127.0.0.1:0
sandbox:
  addr: 127.0.0.1:0
`
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := run(t, ctx, cfg, "serve", "--sandbox")
	require.NoError(t, err)
}

func TestSandboxRejectsBadFailure(t *testing.T) {
	_, err := run(t, context.Background(), quietConfig, "sandbox", "--fail", "rate=2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside [0,1]")
}
