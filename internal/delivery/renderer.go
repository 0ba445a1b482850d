package delivery

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/snapbrief/snapbrief/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer renders briefing messages from templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer loads all briefing templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"title": titleCase,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range []string{"email_briefing", "message_briefing"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// Render produces the subject and body for a briefing on the given method.
// Webhook deliveries carry the structured payload instead; their body is
// empty and the sender marshals JSON itself.
func (r *Renderer) Render(method domain.DeliveryMethod, payload BriefingPayload) (subject, body string, err error) {
	if method == domain.DeliveryMethodWebhook {
		return "", "", nil
	}

	name := "message_briefing"
	if method == domain.DeliveryMethodEmail {
		name = "email_briefing"
		subject = fmt.Sprintf("☕ Your briefing for %s", payload.LocalDate)
	}

	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", name, err)
	}

	return subject, strings.TrimSpace(buf.String()), nil
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
