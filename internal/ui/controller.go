package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Ratio1/postdesk/internal/httpx"
	"github.com/Ratio1/postdesk/internal/prefs"
	"github.com/Ratio1/postdesk/pkg/posts"
)

// ClientFactory returns a Posts API client for the base URL currently in the
// URL field.
type ClientFactory func(baseURL string) (*posts.Client, error)

// HTTPClients builds a fresh HTTP client per call, so edits to the URL field
// take effect on the next action.
func HTTPClients(opts ...httpx.Option) ClientFactory {
	return func(baseURL string) (*posts.Client, error) {
		return posts.New(strings.TrimSpace(baseURL), opts...)
	}
}

// StaticClient ignores the URL field and always returns c.
func StaticClient(c *posts.Client) ClientFactory {
	return func(string) (*posts.Client, error) { return c, nil }
}

// Controller owns the UI state. Operations never return errors: a failure is
// logged and the state is left untouched. Network calls run without holding
// the lock, so concurrent operations complete in arrival order of their
// responses.
type Controller struct {
	mu      sync.Mutex
	state   State
	store   prefs.Store
	clients ClientFactory
	logger  *zap.Logger
}

// NewController wires a controller. A nil logger discards logs.
func NewController(store prefs.Store, clients ClientFactory, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{store: store, clients: clients, logger: logger}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetField writes user input into the named field.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.state.fieldPtr(name)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// Initialize restores the remembered base URL and, when one is found, loads
// the posts. Without one the page stays empty.
func (c *Controller) Initialize(ctx context.Context) {
	saved, ok, err := c.store.Get(ctx, prefs.KeyAPIBaseURL)
	if err != nil {
		c.logger.Error("read saved base url", zap.String("op", "initialize"), zap.Error(err))
		return
	}
	if !ok || saved == "" {
		c.logger.Debug("no saved base url", zap.String("op", "initialize"))
		return
	}

	c.mu.Lock()
	c.state.BaseURL = saved
	c.mu.Unlock()

	c.LoadPosts(ctx)
}

// LoadPosts fetches every post and replaces the rendered list, then shows
// the list and add form.
func (c *Controller) LoadPosts(ctx context.Context) {
	const op = "load_posts"
	client, base, ok := c.begin(ctx, op)
	if !ok {
		return
	}

	list, err := client.List(ctx)
	if err != nil {
		c.fail(op, base, err)
		return
	}
	c.logger.Debug("posts fetched", zap.String("op", op), zap.String("base_url", base), zap.Int("count", len(list)))

	c.mu.Lock()
	c.state.Posts = list
	c.state.View = ViewList
	c.mu.Unlock()
}

// AddPost creates a post from the add form and reloads the list. The form is
// left filled in. A JSON error reply from the API also triggers the reload.
func (c *Controller) AddPost(ctx context.Context) {
	const op = "add_post"
	client, base, ok := c.begin(ctx, op)
	if !ok {
		return
	}

	c.mu.Lock()
	payload := c.state.Add.Payload()
	c.mu.Unlock()

	post, err := client.Create(ctx, payload)
	if err != nil {
		c.fail(op, base, err)
		if answered(err, true) {
			c.LoadPosts(ctx)
		}
		return
	}
	c.logger.Info("post added", zap.String("op", op), zap.Int("post_id", post.ID))
	c.LoadPosts(ctx)
}

// DeletePost deletes post id and reloads the list once the API has answered,
// whatever the status.
func (c *Controller) DeletePost(ctx context.Context, id int) {
	const op = "delete_post"
	client, base, ok := c.begin(ctx, op)
	if !ok {
		return
	}

	if err := client.Delete(ctx, id); err != nil {
		c.fail(op, base, err, zap.Int("post_id", id))
		if answered(err, false) {
			c.LoadPosts(ctx)
		}
		return
	}
	c.logger.Info("post deleted", zap.String("op", op), zap.Int("post_id", id))
	c.LoadPosts(ctx)
}

// EditPost fetches post id into the edit form and switches to the edit view.
func (c *Controller) EditPost(ctx context.Context, id int) {
	const op = "edit_post"
	client, base, ok := c.begin(ctx, op)
	if !ok {
		return
	}

	post, err := client.Get(ctx, id)
	if err != nil {
		c.fail(op, base, err, zap.Int("post_id", id))
		return
	}

	c.mu.Lock()
	c.state.Edit = EditForm{
		Form: Form{
			Title:   post.Title,
			Content: post.Content,
			Author:  post.Author,
			Date:    post.Date,
		},
		PostID: strconv.Itoa(post.ID),
	}
	c.state.View = ViewEdit
	c.mu.Unlock()
}

// UpdatePost sends the edit form for the post named by the hidden id field,
// then reloads the list, which also restores the list view.
func (c *Controller) UpdatePost(ctx context.Context) {
	const op = "update_post"
	client, base, ok := c.begin(ctx, op)
	if !ok {
		return
	}

	c.mu.Lock()
	rawID := c.state.Edit.PostID
	payload := c.state.Edit.Payload()
	c.mu.Unlock()

	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		c.fail(op, base, fmt.Errorf("invalid post id %q", rawID))
		return
	}

	post, err := client.Update(ctx, id, payload)
	if err != nil {
		c.fail(op, base, err, zap.Int("post_id", id))
		if answered(err, true) {
			c.LoadPosts(ctx)
		}
		return
	}
	c.logger.Info("post updated", zap.String("op", op), zap.Int("post_id", post.ID))
	c.LoadPosts(ctx)
}

// CancelEdit returns to the list view without any request.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.state.View = ViewList
	c.mu.Unlock()
}

// begin reads the URL field, remembers it and resolves a client for it.
func (c *Controller) begin(ctx context.Context, op string) (*posts.Client, string, bool) {
	c.mu.Lock()
	base := c.state.BaseURL
	c.mu.Unlock()

	if err := c.store.Set(ctx, prefs.KeyAPIBaseURL, base); err != nil {
		c.logger.Warn("save base url", zap.String("op", op), zap.String("base_url", base), zap.Error(err))
	}

	client, err := c.clients(base)
	if err != nil {
		c.fail(op, base, err)
		return nil, base, false
	}
	return client, base, true
}

// answered reports whether the API responded to the request, even with an
// error status. With jsonBody the error body must also have been JSON.
func answered(err error, jsonBody bool) bool {
	var he *httpx.HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return !jsonBody || he.JSON != nil
}

func (c *Controller) fail(op, base string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("op", op),
		zap.String("base_url", base),
		zap.Error(err),
	}, fields...)
	c.logger.Error("posts request failed", fields...)
}
