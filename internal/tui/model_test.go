package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Ratio1/postdesk/internal/prefs"
	"github.com/Ratio1/postdesk/internal/ui"
	"github.com/Ratio1/postdesk/pkg/posts"
	"github.com/Ratio1/postdesk/pkg/posts/mock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to the model. When it starts a request the command runs
// synchronously and its refresh is fed back in; cursor blink commands are
// dropped.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil || m.busy == "" {
		return m
	}
	if out, ok := cmd().(refreshMsg); ok {
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func newModel(t *testing.T, savedURL string) (Model, *mock.Mock) {
	t.Helper()
	store := mock.New()
	require.NoError(t, store.Seed(mock.DefaultSeed()))

	p := prefs.NewMemoryStore()
	if savedURL != "" {
		require.NoError(t, p.Set(context.Background(), prefs.KeyAPIBaseURL, savedURL))
	}
	ctrl := ui.NewController(p, ui.StaticClient(posts.NewWithBackend(store)), nil)
	m := New(context.Background(), ctrl, Options{})

	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(Model), store
}

func TestInitLoadsFromSavedURL(t *testing.T) {
	m, _ := newModel(t, "http://x")
	assert.Equal(t, "http://x", m.inputs[inURL].Value())
	assert.Len(t, m.state.Posts, 2)
	assert.Contains(t, m.View(), "First post")
	assert.Contains(t, m.View(), "Second post")
}

func TestInitShowsStatusUntilRefresh(t *testing.T) {
	ctrl := ui.NewController(prefs.NewMemoryStore(), ui.StaticClient(posts.NewWithBackend(mock.New())), nil)
	m := New(context.Background(), ctrl, Options{})
	assert.Contains(t, m.View(), "initialize...")

	next, _ := m.Update(m.Init()())
	assert.NotContains(t, next.(Model).View(), "initialize...")
}

func TestInitWithoutSavedURLStaysEmpty(t *testing.T) {
	m, _ := newModel(t, "")
	assert.Empty(t, m.state.Posts)
	assert.Equal(t, "", m.inputs[inURL].Value())
}

func TestAddPostFromForm(t *testing.T) {
	m, store := newModel(t, "http://x")

	m = press(t, m, keys("a"))
	require.Equal(t, groupAdd, m.group)
	m = press(t, m, keys("Hi"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, keys("there"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, groupNone, m.group)
	require.Len(t, m.state.Posts, 3)
	created, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, posts.Post{ID: 3, Title: "Hi", Content: "there", Author: posts.DefaultAuthor}, *created)
}

func TestEditCycle(t *testing.T) {
	m, store := newModel(t, "http://x")

	m = press(t, m, keys("j"))
	assert.Equal(t, 1, m.selected)
	m = press(t, m, keys("e"))

	require.True(t, m.state.ShowEdit())
	assert.Equal(t, groupEdit, m.group)
	assert.Equal(t, "Second post", m.inputs[inUpdateTitle].Value())
	assert.Equal(t, "2", m.state.Edit.PostID)
	assert.NotContains(t, m.View(), "First post")

	m = press(t, m, keys("!"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.state.ShowList())
	assert.Equal(t, groupNone, m.group)
	updated, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Second post!", updated.Title)
	assert.Equal(t, posts.DefaultAuthor, updated.Author)
}

func TestEscCancelsEdit(t *testing.T) {
	m, _ := newModel(t, "http://x")
	m = press(t, m, keys("e"))
	require.True(t, m.state.ShowEdit())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.state.ShowList())
	assert.Equal(t, groupNone, m.group)
}

func TestDeleteSelected(t *testing.T) {
	m, _ := newModel(t, "http://x")
	m = press(t, m, keys("j"))
	m = press(t, m, keys("d"))

	require.Len(t, m.state.Posts, 1)
	assert.Equal(t, 1, m.state.Posts[0].ID)
	assert.Equal(t, 0, m.selected)
}

func TestURLFieldSubmitLoads(t *testing.T) {
	m, _ := newModel(t, "")
	m = press(t, m, keys("u"))
	require.Equal(t, groupURL, m.group)
	m = press(t, m, keys("http://y"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "http://y", m.state.BaseURL)
	assert.Len(t, m.state.Posts, 2)
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, "")
	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
