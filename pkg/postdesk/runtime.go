package postdesk

import (
	"fmt"
	"os"
	"strings"

	"github.com/Ratio1/postdesk/internal/devseed"
	"github.com/Ratio1/postdesk/internal/httpx"
	"github.com/Ratio1/postdesk/pkg/posts"
	"github.com/Ratio1/postdesk/pkg/posts/mock"
)

// Environment variables and modes read by NewFromEnv.
const (
	EnvMode     = "POSTDESK_MODE"
	EnvAPIURL   = "POSTDESK_API_URL"
	EnvMockSeed = "POSTDESK_MOCK_SEED"

	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// NewFromEnv initialises a Posts API client from the environment. It returns
// the resolved mode ("http" or "mock"). opts are applied to the HTTP client
// only.
func NewFromEnv(opts ...httpx.Option) (*posts.Client, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(EnvMode)))
	apiURL := strings.TrimSpace(os.Getenv(EnvAPIURL))

	switch mode {
	case "", ModeAuto:
		if apiURL != "" {
			return newHTTPClient(apiURL, opts)
		}
		return newMockClient()
	case ModeHTTP:
		if apiURL == "" {
			return nil, "", fmt.Errorf("postdesk: HTTP mode requires %s", EnvAPIURL)
		}
		return newHTTPClient(apiURL, opts)
	case ModeMock:
		return newMockClient()
	default:
		return nil, "", fmt.Errorf("postdesk: unsupported %s value %q", EnvMode, mode)
	}
}

func newHTTPClient(apiURL string, opts []httpx.Option) (*posts.Client, string, error) {
	client, err := posts.New(apiURL, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("postdesk: init HTTP client: %w", err)
	}
	return client, ModeHTTP, nil
}

func newMockClient() (*posts.Client, string, error) {
	m := mock.New()
	if path := strings.TrimSpace(os.Getenv(EnvMockSeed)); path != "" {
		entries, err := devseed.LoadPosts(path)
		if err != nil {
			return nil, "", fmt.Errorf("postdesk: load mock seed: %w", err)
		}
		if err := m.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("postdesk: apply mock seed: %w", err)
		}
	}
	return posts.NewWithBackend(m), ModeMock, nil
}
