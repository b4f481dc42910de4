// Package postdesk bootstraps a posts.Client from environment variables.
// POSTDESK_MODE selects "http", "mock" or "auto"; POSTDESK_API_URL points at
// the Posts API; POSTDESK_MOCK_SEED names a JSON or YAML seed file for the
// in-memory mock. In auto mode (the default) the HTTP client is used when a
// URL is present and the mock otherwise, so programs keep working on a
// laptop without a running API.
package postdesk
