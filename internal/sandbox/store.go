package sandbox

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Ratio1/postdesk/internal/devseed"
	"github.com/Ratio1/postdesk/pkg/posts/mock"
)

// NewStore returns the mock backing a sandbox. With a dataFile, posts are
// loaded from it when it exists and every mutation is written back; a
// missing file starts from the default posts. Without one the store lives in
// memory only.
func NewStore(dataFile string) (*mock.Mock, error) {
	if dataFile == "" {
		m := mock.New()
		if err := m.Seed(mock.DefaultSeed()); err != nil {
			return nil, err
		}
		return m, nil
	}

	m := mock.New(mock.WithPersistence(dataFile))
	entries, err := devseed.LoadPosts(dataFile)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		entries = mock.DefaultSeed()
	default:
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	if err := m.Seed(entries); err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	return m, nil
}
