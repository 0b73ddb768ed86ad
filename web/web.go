// Package web embeds the HTML templates served by the gin engine.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var FS embed.FS

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string { return t.UTC().Format("January 2, 2006 15:04") },
		"upper":      strings.ToUpper,
	}
}

// Templates parses every page; each file defines a template named after itself.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs()).ParseFS(FS, "templates/*.html")
}
