package posts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Ratio1/postdesk/internal/apijson"
	"github.com/Ratio1/postdesk/internal/httpx"
)

// Backend is the transport behind a Client.
type Backend interface {
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id int) (*Post, error)
	Create(ctx context.Context, p Payload) (*Post, error)
	Update(ctx context.Context, id int, p Payload) (*Post, error)
	Delete(ctx context.Context, id int) error
}

// Client provides access to the Posts API.
type Client struct {
	backend Backend
}

// New constructs a Client bound to the provided base URL.
func New(baseURL string, opts ...httpx.Option) (*Client, error) {
	cl, err := httpx.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client) *Client {
	return &Client{backend: &httpBackend{client: httpClient}}
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// List fetches every post.
func (c *Client) List(ctx context.Context) ([]Post, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("posts: client is nil")
	}
	list, err := c.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Post{}
	}
	return list, nil
}

// Get fetches a single post.
func (c *Client) Get(ctx context.Context, id int) (*Post, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("posts: client is nil")
	}
	return c.backend.Get(ctx, id)
}

// Create sends a new post and returns the stored copy.
func (c *Client) Create(ctx context.Context, p Payload) (*Post, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("posts: client is nil")
	}
	return c.backend.Create(ctx, p)
}

// Update replaces the fields of post id and returns the stored copy.
func (c *Client) Update(ctx context.Context, id int, p Payload) (*Post, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("posts: client is nil")
	}
	return c.backend.Update(ctx, id, p)
}

// Delete removes post id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int) error {
	if c == nil || c.backend == nil {
		return errors.New("posts: client is nil")
	}
	return c.backend.Delete(ctx, id)
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) List(ctx context.Context) ([]Post, error) {
	var list []Post
	if err := b.call(ctx, http.MethodGet, "/posts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (b *httpBackend) Get(ctx context.Context, id int) (*Post, error) {
	var post Post
	if err := b.call(ctx, http.MethodGet, postPath(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (b *httpBackend) Create(ctx context.Context, p Payload) (*Post, error) {
	var post Post
	if err := b.call(ctx, http.MethodPost, "/posts", p, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (b *httpBackend) Update(ctx context.Context, id int, p Payload) (*Post, error) {
	var post Post
	if err := b.call(ctx, http.MethodPut, postPath(id), p, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (b *httpBackend) Delete(ctx context.Context, id int) error {
	return b.call(ctx, http.MethodDelete, postPath(id), nil, nil)
}

// call issues one request. A nil payload sends no body; a nil out skips
// decoding and discards the response body.
func (b *httpBackend) call(ctx context.Context, method, path string, payload any, out any) error {
	if b == nil || b.client == nil {
		return errors.New("posts: http backend not configured")
	}

	req := &httpx.Request{Method: method, Path: path}
	if payload != nil {
		body, contentType, err := httpx.WithJSONBody(payload)
		if err != nil {
			return fmt.Errorf("posts: encode payload: %w", err)
		}
		req.Body = body
		req.Header = http.Header{"Content-Type": []string{contentType}}
	}

	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return mapError(err)
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return fmt.Errorf("posts: read response: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := apijson.Decode(data, out); err != nil {
		return fmt.Errorf("posts: %s %s: %w", method, path, err)
	}
	return nil
}

func mapError(err error) error {
	if httpx.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func postPath(id int) string {
	return "/posts/" + strconv.Itoa(id)
}
