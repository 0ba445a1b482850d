package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/snapbrief/snapbrief/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// brand is the wordmark stamped on every card.
const brand = "snapbrief"

// Renderer composes fixed-layout SVG preview cards.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer loads the card template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"escape": html.EscapeString,
		"upper":  strings.ToUpper,
		"title":  titleCase,
	}

	content, err := templatesFS.ReadFile("templates/card.svg.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read card template: %w", err)
	}

	tmpl, err := template.New("card").Funcs(funcMap).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse card template: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// cardData is the template context for one card.
type cardData struct {
	Theme       Theme
	Title       string
	Description string
	Label       string
	Brand       string
}

// Render composes the preview card for a snap app. The theme is keyed by
// the app's type tag; unknown tags get the default visuals.
func (r *Renderer) Render(app *domain.SnapApp) ([]byte, error) {
	theme := ThemeFor(app.AppType)

	data := cardData{
		Theme:       theme,
		Title:       truncate(app.Title, 40),
		Description: truncate(app.Description, 80),
		Label:       theme.Label,
		Brand:       brand,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute card template: %w", err)
	}
	return buf.Bytes(), nil
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// truncate cuts s at max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
