package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/page.html
var templateFS embed.FS

var functions = template.FuncMap{
	"display": func(visible bool) string {
		if visible {
			return "block"
		}
		return "none"
	},
}

var pageTemplate = template.Must(template.New("page.html").Funcs(functions).ParseFS(templateFS, "templates/page.html"))

// Render writes the full page for s. Nothing is written when rendering
// fails.
func Render(w io.Writer, s State) error {
	buf := new(bytes.Buffer)
	if err := pageTemplate.Execute(buf, s); err != nil {
		return fmt.Errorf("ui: render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
