package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Ratio1/postdesk/internal/devseed"
	"github.com/Ratio1/postdesk/pkg/posts"
)

// Mock implements an in-memory Posts API. It satisfies posts.Backend.
type Mock struct {
	mu          sync.RWMutex
	posts       []posts.Post
	persistPath string
}

// Option configures the mock instance.
type Option func(*Mock)

// WithPersistence writes the full post list to path after every mutation.
func WithPersistence(path string) Option {
	return func(m *Mock) {
		m.persistPath = path
	}
}

// New creates an empty mock store.
func New(opts ...Option) *Mock {
	m := &Mock{posts: []posts.Post{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultSeed returns the two posts a fresh development server starts with.
func DefaultSeed() []devseed.PostSeed {
	return []devseed.PostSeed{
		{ID: 1, Title: "First post", Content: "This is the first post."},
		{ID: 2, Title: "Second post", Content: "This is the second post."},
	}
}

// Seed replaces the stored posts with entries (typically decoded via
// devseed.LoadPosts). Entries without an id are numbered after the highest
// explicit id, in order.
func (m *Mock) Seed(entries []devseed.PostSeed) error {
	seen := make(map[int]bool, len(entries))
	maxID := 0
	for _, e := range entries {
		if e.ID < 0 {
			return fmt.Errorf("mock posts: seed entry has negative id %d", e.ID)
		}
		if e.ID == 0 {
			continue
		}
		if seen[e.ID] {
			return fmt.Errorf("mock posts: duplicate seed id %d", e.ID)
		}
		seen[e.ID] = true
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	next := make([]posts.Post, 0, len(entries))
	for _, e := range entries {
		p := posts.Post{ID: e.ID, Title: e.Title, Content: e.Content, Author: e.Author, Date: e.Date}
		if p.ID == 0 {
			maxID++
			p.ID = maxID
		}
		next = append(next, p)
	}

	m.mu.Lock()
	m.posts = next
	m.mu.Unlock()
	return nil
}

// List returns a copy of every stored post in insertion order.
func (m *Mock) List(ctx context.Context) ([]posts.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]posts.Post, len(m.posts))
	copy(out, m.posts)
	return out, nil
}

// Get returns post id or posts.ErrNotFound.
func (m *Mock) Get(ctx context.Context, id int) (*posts.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	p := m.posts[idx]
	return &p, nil
}

// Create stores a new post with the next free id.
func (m *Mock) Create(ctx context.Context, in posts.Payload) (*posts.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := posts.Post{
		ID:      nextID(m.posts),
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
		Date:    in.Date,
	}
	next := append(append(make([]posts.Post, 0, len(m.posts)+1), m.posts...), p)
	if err := m.commit(next); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces every field of post id.
func (m *Mock) Update(ctx context.Context, id int, in posts.Payload) (*posts.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	p := posts.Post{ID: id, Title: in.Title, Content: in.Content, Author: in.Author, Date: in.Date}
	next := make([]posts.Post, len(m.posts))
	copy(next, m.posts)
	next[idx] = p
	if err := m.commit(next); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes post id.
func (m *Mock) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}
	next := make([]posts.Post, 0, len(m.posts)-1)
	next = append(next, m.posts[:idx]...)
	next = append(next, m.posts[idx+1:]...)
	return m.commit(next)
}

// commit persists next (when configured) before making it visible, so a
// failed write leaves the store unchanged. Callers hold m.mu.
func (m *Mock) commit(next []posts.Post) error {
	if m.persistPath != "" {
		entries := make([]devseed.PostSeed, 0, len(next))
		for _, p := range next {
			entries = append(entries, devseed.PostSeed{ID: p.ID, Title: p.Title, Content: p.Content, Author: p.Author, Date: p.Date})
		}
		if err := devseed.SavePosts(m.persistPath, entries); err != nil {
			return fmt.Errorf("mock posts: persist: %w", err)
		}
	}
	m.posts = next
	return nil
}

func (m *Mock) indexOf(id int) int {
	for i, p := range m.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func nextID(list []posts.Post) int {
	max := 0
	for _, p := range list {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func validate(in posts.Payload) error {
	if in.Title == "" || in.Content == "" {
		return posts.ErrInvalidPost
	}
	return nil
}

func notFound(id int) error {
	return fmt.Errorf("%w: post with id %d", posts.ErrNotFound, id)
}
