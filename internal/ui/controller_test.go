package ui_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ratio1/postdesk/internal/devseed"
	"github.com/Ratio1/postdesk/internal/prefs"
	"github.com/Ratio1/postdesk/internal/ui"
	"github.com/Ratio1/postdesk/pkg/posts"
	"github.com/Ratio1/postdesk/pkg/posts/mock"
)

// recordingAPI serves a mock.Mock over HTTP and records every request.
type recordingAPI struct {
	mu       sync.Mutex
	store    *mock.Mock
	requests []string
	bodies   []map[string]any
	fail     int // when non-zero every request answers with this status
}

func newRecordingAPI(t *testing.T, seed []devseed.PostSeed) (*recordingAPI, *httptest.Server) {
	t.Helper()
	m := mock.New()
	require.NoError(t, m.Seed(seed))
	api := &recordingAPI{store: m}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *recordingAPI) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *recordingAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	a.mu.Lock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path)
	if len(raw) > 0 {
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		a.bodies = append(a.bodies, body)
	}
	fail := a.fail
	a.mu.Unlock()

	if fail != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fail)
		io.WriteString(w, `{"error":"boom"}`)
		return
	}

	ctx := r.Context()
	var (
		out any
		err error
	)
	switch {
	case r.URL.Path == "/posts" && r.Method == http.MethodGet:
		out, err = a.store.List(ctx)
	case r.URL.Path == "/posts" && r.Method == http.MethodPost:
		var p posts.Payload
		_ = json.Unmarshal(raw, &p)
		out, err = a.store.Create(ctx, p)
	case strings.HasPrefix(r.URL.Path, "/posts/"):
		id, convErr := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/posts/"))
		if convErr != nil {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			out, err = a.store.Get(ctx, id)
		case http.MethodPut:
			var p posts.Payload
			_ = json.Unmarshal(raw, &p)
			out, err = a.store.Update(ctx, id, p)
		case http.MethodDelete:
			err = a.store.Delete(ctx, id)
			out = map[string]string{"message": "deleted"}
		}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, posts.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		out = map[string]string{"error": err.Error()}
	case err != nil:
		w.WriteHeader(http.StatusBadRequest)
		out = map[string]string{"error": err.Error()}
	}
	json.NewEncoder(w).Encode(out)
}

func newController(t *testing.T, store prefs.Store) (*ui.Controller, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return ui.NewController(store, ui.HTTPClients(), zap.New(core)), logs
}

func TestInitializeWithSavedURL(t *testing.T) {
	api, srv := newRecordingAPI(t, []devseed.PostSeed{{ID: 1, Title: "A", Content: "B", Author: "C", Date: "D"}})
	store := prefs.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), prefs.KeyAPIBaseURL, srv.URL))

	ctrl, _ := newController(t, store)
	ctrl.Initialize(context.Background())

	state := ctrl.Snapshot()
	assert.Equal(t, srv.URL, state.BaseURL)
	assert.Equal(t, []string{"GET /posts"}, api.calls())
	assert.Equal(t, []posts.Post{{ID: 1, Title: "A", Content: "B", Author: "C", Date: "D"}}, state.Posts)
	assert.True(t, state.ShowList())
	assert.True(t, state.ShowAdd())
	assert.False(t, state.ShowEdit())
}

func TestInitializeWithoutSavedURL(t *testing.T) {
	api, _ := newRecordingAPI(t, nil)

	for _, saved := range []string{"", "unset"} {
		store := prefs.NewMemoryStore()
		if saved != "unset" {
			require.NoError(t, store.Set(context.Background(), prefs.KeyAPIBaseURL, saved))
		}
		ctrl, _ := newController(t, store)
		ctrl.Initialize(context.Background())

		assert.Equal(t, ui.State{}, ctrl.Snapshot())
	}
	assert.Empty(t, api.calls())
}

func TestAddPostPayloadRulesAndReload(t *testing.T) {
	api, srv := newRecordingAPI(t, nil)
	store := prefs.NewMemoryStore()
	ctrl, _ := newController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))
	require.NoError(t, ctrl.SetField(ui.FieldTitle, "Hello"))
	require.NoError(t, ctrl.SetField(ui.FieldContent, "World"))
	ctrl.AddPost(ctx)

	require.NoError(t, ctrl.SetField(ui.FieldAuthor, "Ada"))
	require.NoError(t, ctrl.SetField(ui.FieldDate, "2024-05-01"))
	ctrl.AddPost(ctx)

	assert.Equal(t, []string{"POST /posts", "GET /posts", "POST /posts", "GET /posts"}, api.calls())

	require.Len(t, api.bodies, 2)
	assert.Equal(t, "Unknown author", api.bodies[0]["author"])
	assert.NotContains(t, api.bodies[0], "date")
	assert.Equal(t, "Ada", api.bodies[1]["author"])
	assert.Equal(t, "2024-05-01", api.bodies[1]["date"])

	state := ctrl.Snapshot()
	require.Len(t, state.Posts, 2)
	assert.Equal(t, 2, state.Posts[1].ID)
	// The add form keeps its values after a create.
	assert.Equal(t, "Hello", state.Add.Title)

	saved, ok, err := store.Get(ctx, prefs.KeyAPIBaseURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, srv.URL, saved)
}

func TestDeletePostReloads(t *testing.T) {
	api, srv := newRecordingAPI(t, mock.DefaultSeed())
	ctrl, _ := newController(t, prefs.NewMemoryStore())
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))

	ctrl.DeletePost(context.Background(), 1)

	assert.Equal(t, []string{"DELETE /posts/1", "GET /posts"}, api.calls())
	state := ctrl.Snapshot()
	require.Len(t, state.Posts, 1)
	assert.Equal(t, 2, state.Posts[0].ID)
}

func TestEditUpdateCycle(t *testing.T) {
	api, srv := newRecordingAPI(t, []devseed.PostSeed{
		{ID: 1, Title: "First", Content: "one"},
		{ID: 2, Title: "Second", Content: "two", Author: "Ada", Date: "2024-01-01"},
	})
	ctrl, _ := newController(t, prefs.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))
	ctrl.LoadPosts(ctx)

	ctrl.EditPost(ctx, 2)
	state := ctrl.Snapshot()
	assert.Equal(t, ui.ViewEdit, state.View)
	assert.True(t, state.ShowEdit())
	assert.False(t, state.ShowAdd())
	assert.False(t, state.ShowList())
	assert.Equal(t, ui.EditForm{
		Form:   ui.Form{Title: "Second", Content: "two", Author: "Ada", Date: "2024-01-01"},
		PostID: "2",
	}, state.Edit)

	require.NoError(t, ctrl.SetField(ui.FieldUpdateTitle, "Second (edited)"))
	require.NoError(t, ctrl.SetField(ui.FieldUpdateAuthor, ""))
	require.NoError(t, ctrl.SetField(ui.FieldUpdateDate, ""))
	ctrl.UpdatePost(ctx)

	assert.Equal(t, []string{"GET /posts", "GET /posts/2", "PUT /posts/2", "GET /posts"}, api.calls())
	require.Len(t, api.bodies, 1)
	assert.Equal(t, map[string]any{"title": "Second (edited)", "content": "two", "author": "Unknown author"}, api.bodies[0])

	state = ctrl.Snapshot()
	assert.Equal(t, ui.ViewList, state.View)
	assert.Equal(t, "Second (edited)", state.Posts[1].Title)
}

func TestCancelEditMakesNoRequest(t *testing.T) {
	api, srv := newRecordingAPI(t, mock.DefaultSeed())
	ctrl, _ := newController(t, prefs.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))

	ctrl.EditPost(ctx, 1)
	require.True(t, ctrl.Snapshot().ShowEdit())

	ctrl.CancelEdit()
	state := ctrl.Snapshot()
	assert.True(t, state.ShowList())
	assert.True(t, state.ShowAdd())
	assert.False(t, state.ShowEdit())
	assert.Equal(t, []string{"GET /posts/1"}, api.calls())
}

func TestFailuresAreLoggedAndLeaveStateUnchanged(t *testing.T) {
	api, srv := newRecordingAPI(t, mock.DefaultSeed())
	ctrl, logs := newController(t, prefs.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))
	ctrl.LoadPosts(ctx)
	require.NoError(t, ctrl.SetField(ui.FieldTitle, "t"))
	require.NoError(t, ctrl.SetField(ui.FieldContent, "c"))
	before := ctrl.Snapshot()

	api.mu.Lock()
	api.fail = http.StatusInternalServerError
	api.mu.Unlock()

	ctrl.LoadPosts(ctx)
	ctrl.AddPost(ctx)
	ctrl.DeletePost(ctx, 1)
	ctrl.EditPost(ctx, 1)

	assert.Equal(t, before, ctrl.Snapshot())

	failures := logs.FilterMessage("posts request failed").AllUntimed()
	require.Len(t, failures, 6)
	var ops []string
	for _, entry := range failures {
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		ops = append(ops, entry.ContextMap()["op"].(string))
	}
	// The API answered the create and delete, so each is followed by a
	// reload, which fails too.
	assert.Equal(t, []string{"load_posts", "add_post", "load_posts", "delete_post", "load_posts", "edit_post"}, ops)
	assert.Equal(t, int64(1), failures[3].ContextMap()["post_id"])

	assert.Equal(t, []string{
		"GET /posts",
		"GET /posts",
		"POST /posts", "GET /posts",
		"DELETE /posts/1", "GET /posts",
		"GET /posts/1",
	}, api.calls())
}

func TestErrorRepliesStillReload(t *testing.T) {
	api, srv := newRecordingAPI(t, mock.DefaultSeed())
	ctrl, logs := newController(t, prefs.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))

	// Deleted elsewhere: 404.
	ctrl.DeletePost(ctx, 9)
	assert.Equal(t, []string{"DELETE /posts/9", "GET /posts"}, api.calls())
	assert.Len(t, ctrl.Snapshot().Posts, 2)

	// Missing content: 400 with a JSON error body.
	require.NoError(t, ctrl.SetField(ui.FieldTitle, "only a title"))
	ctrl.AddPost(ctx)
	assert.Equal(t, []string{"DELETE /posts/9", "GET /posts", "POST /posts", "GET /posts"}, api.calls())

	require.NoError(t, ctrl.SetField(ui.FieldUpdatePostID, "9"))
	require.NoError(t, ctrl.SetField(ui.FieldUpdateTitle, "t"))
	require.NoError(t, ctrl.SetField(ui.FieldUpdateContent, "c"))
	ctrl.UpdatePost(ctx)
	calls := api.calls()
	assert.Equal(t, []string{"PUT /posts/9", "GET /posts"}, calls[len(calls)-2:])

	assert.Equal(t, 3, logs.FilterMessage("posts request failed").Len())
	assert.True(t, ctrl.Snapshot().ShowList())
}

func TestNonJSONErrorReplySkipsReload(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	ctrl, _ := newController(t, prefs.NewMemoryStore())
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))
	require.NoError(t, ctrl.SetField(ui.FieldTitle, "t"))
	require.NoError(t, ctrl.SetField(ui.FieldContent, "c"))

	ctrl.AddPost(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /posts"}, calls)
}

func TestNetworkFailureSkipsReload(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	ctrl, logs := newController(t, prefs.NewMemoryStore())
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, base))

	ctrl.DeletePost(context.Background(), 1)

	failures := logs.FilterMessage("posts request failed").AllUntimed()
	require.Len(t, failures, 1)
	assert.Equal(t, "delete_post", failures[0].ContextMap()["op"])
}

func TestNonJSONListIsAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>hello</html>")
	}))
	defer srv.Close()

	ctrl, logs := newController(t, prefs.NewMemoryStore())
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))
	ctrl.LoadPosts(context.Background())

	assert.Nil(t, ctrl.Snapshot().Posts)
	assert.Equal(t, 1, logs.FilterMessage("posts request failed").Len())
}

func TestBadBaseURLIsLogged(t *testing.T) {
	store := prefs.NewMemoryStore()
	ctrl, logs := newController(t, store)
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, "not a url"))

	ctrl.LoadPosts(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("posts request failed").Len())
	// The field value is still remembered.
	saved, _, err := store.Get(context.Background(), prefs.KeyAPIBaseURL)
	require.NoError(t, err)
	assert.Equal(t, "not a url", saved)
}

func TestUpdateWithoutPostIDIsLogged(t *testing.T) {
	api, srv := newRecordingAPI(t, nil)
	ctrl, logs := newController(t, prefs.NewMemoryStore())
	require.NoError(t, ctrl.SetField(ui.FieldBaseURL, srv.URL))

	ctrl.UpdatePost(context.Background())

	assert.Empty(t, api.calls())
	assert.Equal(t, 1, logs.FilterMessage("posts request failed").Len())
}

func TestSetFieldRejectsUnknownNames(t *testing.T) {
	ctrl, _ := newController(t, prefs.NewMemoryStore())
	assert.Error(t, ctrl.SetField("post-tags", "x"))

	for _, name := range ui.Fields {
		require.NoError(t, ctrl.SetField(name, name+"-value"))
		got, err := ctrl.Snapshot().Field(name)
		require.NoError(t, err)
		assert.Equal(t, name+"-value", got)
	}
}

func TestStaticClientIgnoresURLField(t *testing.T) {
	m := mock.New()
	require.NoError(t, m.Seed(mock.DefaultSeed()))
	ctrl := ui.NewController(prefs.NewMemoryStore(), ui.StaticClient(posts.NewWithBackend(m)), nil)

	ctrl.LoadPosts(context.Background())
	assert.Len(t, ctrl.Snapshot().Posts, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := mock.New()
	require.NoError(t, m.Seed(mock.DefaultSeed()))
	ctrl := ui.NewController(prefs.NewMemoryStore(), ui.StaticClient(posts.NewWithBackend(m)), nil)
	ctrl.LoadPosts(context.Background())

	snap := ctrl.Snapshot()
	snap.Posts[0].Title = "changed"
	assert.Equal(t, "First post", ctrl.Snapshot().Posts[0].Title)
}
