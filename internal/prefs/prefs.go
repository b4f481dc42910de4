// Package prefs remembers small client-side settings between runs, most
// importantly the Posts API base URL stored under KeyAPIBaseURL. It plays the
// role browser local storage plays for a web page.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ratio1/postdesk/internal/config"
)

// KeyAPIBaseURL is the key holding the configured API origin.
const KeyAPIBaseURL = "apiBaseUrl"

// Store is a string key/value store.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.PrefsConfig) (Store, error) {
	switch cfg.Backend {
	case config.PrefsFile, "":
		path := cfg.Path
		if path == "" {
			path = DefaultPath("prefs.yaml")
		}
		return NewFileStore(path)
	case config.PrefsSQLite:
		path := cfg.Path
		if path == "" {
			path = DefaultPath("prefs.db")
		}
		return OpenSQLite(ctx, path)
	case config.PrefsRedis:
		return OpenRedis(ctx, cfg.Redis)
	case config.PrefsMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("prefs: unknown backend %q", cfg.Backend)
	}
}

// DefaultPath places name under the user config directory, falling back to
// the working directory when none is available.
func DefaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".postdesk", name)
	}
	return filepath.Join(dir, "postdesk", name)
}
