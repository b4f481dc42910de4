// Package devseed reads and writes post seed files used by the mock Posts API.
package devseed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PostSeed is one post in a seed file. Files may be JSON or YAML.
type PostSeed struct {
	ID      int    `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

// LoadPosts decodes a list of seed posts from path. An empty file yields an
// empty list.
func LoadPosts(path string) ([]PostSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []PostSeed{}, nil
	}

	// YAML is a superset of JSON, so one decoder covers both formats.
	var entries []PostSeed
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: decode %s: %w", path, err)
	}
	if entries == nil {
		entries = []PostSeed{}
	}
	return entries, nil
}

// SavePosts writes entries to path as indented JSON. The file is replaced
// atomically.
func SavePosts(path string, entries []PostSeed) error {
	if entries == nil {
		entries = []PostSeed{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("devseed: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("devseed: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".posts-*.json")
	if err != nil {
		return fmt.Errorf("devseed: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("devseed: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("devseed: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("devseed: replace %s: %w", path, err)
	}
	return nil
}
