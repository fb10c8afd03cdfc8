// Package web holds the embedded HTML templates for the UI.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var files embed.FS

// Templates parses the embedded templates
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(files, "templates/*.tmpl")
}
