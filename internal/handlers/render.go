package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"storefront-admin/internal/flash"
	"storefront-admin/internal/models"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "add", "list", "orders"}

// Page is the data every template receives.
type Page struct {
	Title         string
	Active        string
	Authenticated bool
	Notice        *flash.Flash
	Currency      string
	Data          any
}

type Renderer struct {
	templates map[string]*template.Template
	currency  string
	logger    zerolog.Logger
}

func NewRenderer(currency string, logger zerolog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"money": func(v float64) string {
			return currency + strconv.FormatFloat(v, 'f', -1, 64)
		},
		"date": func(ts models.Timestamp) string {
			if ts.IsZero() {
				return "N/A"
			}
			return ts.Local().Format("1/2/2006")
		},
		"inc": func(i int) int { return i + 1 },
	}

	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		currency:  currency,
		logger:    logger,
	}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes page name. A template failure is logged and turned into a
// 500 before anything is sent.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p Page) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	p.Currency = r.currency
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		r.logger.Error().Err(err).Str("template", name).Msg("Template execution failed")
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
