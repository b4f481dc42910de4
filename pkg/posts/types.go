package posts

import "errors"

// DefaultAuthor replaces an empty author in outgoing payloads.
const DefaultAuthor = "Unknown author"

// Post is a blog entry as returned by the Posts API.
type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Payload is the request body of create and update calls.
type Payload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Date    string `json:"date,omitempty"`
}

// NewPayload builds a Payload from raw form values. Only the exact empty
// string triggers the author default or the date omission.
func NewPayload(title, content, author, date string) Payload {
	if author == "" {
		author = DefaultAuthor
	}
	return Payload{
		Title:   title,
		Content: content,
		Author:  author,
		Date:    date,
	}
}

var (
	// ErrNotFound is returned when the requested post does not exist.
	ErrNotFound = errors.New("posts: not found")
	// ErrInvalidPost is returned when a payload lacks a title or content.
	ErrInvalidPost = errors.New("posts: title and content are required")
)
