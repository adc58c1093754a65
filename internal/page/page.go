// Package page renders the greeting page.
package page

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"

	apperrors "github.com/Aidin1998/greeter/common/errors"
	"github.com/Aidin1998/greeter/internal/database"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Title of the rendered document
const Title = "Greeter"

// Page holds the outcome of one request's dependency round-trips
type Page struct {
	Message     string
	CacheErr    error
	WithVisits  bool
	Visits      []database.Visit
	DatabaseErr error
	// DatabaseName prefixes database errors that are not already typed
	DatabaseName string
}

type view struct {
	Title         string
	Message       string
	CacheError    template.HTML
	WithVisits    bool
	Visits        []database.Visit
	DatabaseError template.HTML
}

// Renderer turns a Page into HTML. Error text from dependencies is
// reduced to plain text before it reaches the document.
type Renderer struct {
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{policy: bluemonday.StrictPolicy()}
}

func (r *Renderer) plain(text string) template.HTML {
	return template.HTML(r.policy.Sanitize(text))
}

// Render writes the page to w. Nothing is written if the template fails.
func (r *Renderer) Render(w io.Writer, p Page) error {
	v := view{
		Title:      Title,
		Message:    p.Message,
		WithVisits: p.WithVisits,
		Visits:     p.Visits,
	}
	if p.CacheErr != nil {
		v.CacheError = r.plain(apperrors.Describe(p.CacheErr, apperrors.DependencyRedis))
	}
	if p.DatabaseErr != nil {
		v.DatabaseError = r.plain(apperrors.Describe(p.DatabaseErr, p.DatabaseName))
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, v); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Fallback is the body served when Render fails
func (r *Renderer) Fallback(err error) string {
	return "<h1>Render Error: " + r.policy.Sanitize(err.Error()) + "</h1>"
}
