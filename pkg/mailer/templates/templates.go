package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	SupportURL  string `json:"SupportURL"`

	ConfirmURL    string    `json:"ConfirmURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// orDefault backs the "default" pipe: {{ .AppName | default "SkyPort" }}.
func orDefault(fallback, value any) any {
	switch x := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	case time.Time:
		if x.IsZero() {
			return fallback
		}
	}
	return value
}

var funcs = map[string]any{
	"default": orDefault,
	"upper":   strings.ToUpper,
}

// ConfirmEmail is the only template the app sends today.
const ConfirmEmail = "confirm_email"

// set holds the three parsed parts of one email.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	mu     sync.Mutex
	parsed = map[string]*set{}
)

// load parses <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl
// once and caches them.
func load(name string) (*set, error) {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := parsed[name]; ok {
		return s, nil
	}

	s := &set{}
	var err error
	if s.subject, err = texttpl.New(name+".subject.tmpl").Funcs(funcs).ParseFS(FS, name+".subject.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s subject: %w", name, err)
	}
	if s.text, err = texttpl.New(name+".text.tmpl").Funcs(funcs).ParseFS(FS, name+".text.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s text: %w", name, err)
	}
	if s.html, err = htmpl.New(name+".html.tmpl").Funcs(funcs).ParseFS(FS, name+".html.tmpl"); err != nil {
		return nil, fmt.Errorf("parse %s html: %w", name, err)
	}
	parsed[name] = s
	return s, nil
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the subject, plain text and HTML bodies of the named email.
func Render(name string, data any) (subject, text, html string, err error) {
	s, err := load(name)
	if err != nil {
		return "", "", "", err
	}
	if subject, err = execute(s.subject, data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if text, err = execute(s.text, data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if html, err = execute(s.html, data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return strings.TrimSpace(subject), text, html, nil
}
