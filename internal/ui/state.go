// Package ui implements the post client UI: the form fields, the rendered
// post list, the List/Add versus Edit view toggle, and the operations that
// drive them. Front ends (the browser page in package web and the terminal
// program in package tui) feed user input in with SetField, call the
// operations, and draw a Snapshot.
package ui

import (
	"fmt"

	"github.com/Ratio1/postdesk/pkg/posts"
)

// View is the two-state page toggle.
type View int

const (
	// ViewList shows the add form and the post list.
	ViewList View = iota
	// ViewEdit shows only the edit form.
	ViewEdit
)

func (v View) String() string {
	if v == ViewEdit {
		return "edit"
	}
	return "list"
}

// Field names. They double as the element ids of the rendered page.
const (
	FieldBaseURL       = "api-base-url"
	FieldTitle         = "post-title"
	FieldContent       = "post-content"
	FieldAuthor        = "post-author"
	FieldDate          = "post-date"
	FieldUpdateTitle   = "update-title"
	FieldUpdateContent = "update-content"
	FieldUpdateAuthor  = "update-author"
	FieldUpdateDate    = "update-date"
	FieldUpdatePostID  = "update-post-id"
)

// Fields lists every settable field in page order.
var Fields = []string{
	FieldBaseURL,
	FieldTitle, FieldContent, FieldAuthor, FieldDate,
	FieldUpdateTitle, FieldUpdateContent, FieldUpdateAuthor, FieldUpdateDate, FieldUpdatePostID,
}

// Form holds the values of a post form.
type Form struct {
	Title   string
	Content string
	Author  string
	Date    string
}

// Payload applies the author default and date omission rules.
func (f Form) Payload() posts.Payload {
	return posts.NewPayload(f.Title, f.Content, f.Author, f.Date)
}

// EditForm is the edit form plus its hidden post id.
type EditForm struct {
	Form
	PostID string
}

// State is everything a front end needs to draw the page.
type State struct {
	BaseURL string
	Add     Form
	Edit    EditForm
	Posts   []posts.Post
	View    View
}

// ShowList reports whether the post list is visible.
func (s State) ShowList() bool { return s.View == ViewList }

// ShowAdd reports whether the add form is visible.
func (s State) ShowAdd() bool { return s.View == ViewList }

// ShowEdit reports whether the edit form is visible.
func (s State) ShowEdit() bool { return s.View == ViewEdit }

func (s State) clone() State {
	out := s
	if s.Posts != nil {
		out.Posts = make([]posts.Post, len(s.Posts))
		copy(out.Posts, s.Posts)
	}
	return out
}

// Field returns the current value of the named field.
func (s State) Field(name string) (string, error) {
	p, err := s.fieldPtr(name)
	if err != nil {
		return "", err
	}
	return *p, nil
}

func (s *State) fieldPtr(name string) (*string, error) {
	switch name {
	case FieldBaseURL:
		return &s.BaseURL, nil
	case FieldTitle:
		return &s.Add.Title, nil
	case FieldContent:
		return &s.Add.Content, nil
	case FieldAuthor:
		return &s.Add.Author, nil
	case FieldDate:
		return &s.Add.Date, nil
	case FieldUpdateTitle:
		return &s.Edit.Title, nil
	case FieldUpdateContent:
		return &s.Edit.Content, nil
	case FieldUpdateAuthor:
		return &s.Edit.Author, nil
	case FieldUpdateDate:
		return &s.Edit.Date, nil
	case FieldUpdatePostID:
		return &s.Edit.PostID, nil
	default:
		return nil, fmt.Errorf("ui: unknown field %q", name)
	}
}
