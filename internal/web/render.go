package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer handles HTML template rendering.
type Renderer struct {
	indexTmpl    *template.Template
	redirectTmpl *template.Template
	errorTmpl    *template.Template
}

// NewRenderer creates a new template renderer.
func NewRenderer() (*Renderer, error) {
	indexTmpl, err := template.New("index.html").ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	redirectTmpl, err := template.New("redirect.html").ParseFS(templateFS, "templates/redirect.html")
	if err != nil {
		return nil, fmt.Errorf("parse redirect template: %w", err)
	}

	errorTmpl, err := template.New("error.html").ParseFS(templateFS, "templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error template: %w", err)
	}

	return &Renderer{
		indexTmpl:    indexTmpl,
		redirectTmpl: redirectTmpl,
		errorTmpl:    errorTmpl,
	}, nil
}

// IndexData contains data for rendering the converter form.
type IndexData struct {
	SourceURL   string
	RedirectURL string
	Error       string
}

// RedirectData contains data for rendering the landing page. Every profile
// field is optional; the template skips what is absent.
type RedirectData struct {
	// Location is the native deep link. Typed template.URL because the
	// tg:// scheme would otherwise be filtered out of href attributes.
	Location  template.URL
	BasePath  string
	RouteName string

	ProfileName       string
	ProfileStatus     template.HTML
	ProfileImage      string
	LocalProfileImage string
	MessageText       template.HTML
	ProfileExtra      template.HTML
}

// ErrorData contains data for rendering error pages.
type ErrorData struct {
	Code    int
	Title   string
	Message string
}

// RenderIndex renders the converter form page.
func (r *Renderer) RenderIndex(w io.Writer, data *IndexData) error {
	if err := r.indexTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute index template: %w", err)
	}

	return nil
}

// RenderRedirect renders the landing page.
func (r *Renderer) RenderRedirect(w io.Writer, data *RedirectData) error {
	if err := r.redirectTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute redirect template: %w", err)
	}

	return nil
}

// RenderError renders an error page.
func (r *Renderer) RenderError(w io.Writer, data *ErrorData) error {
	if err := r.errorTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute error template: %w", err)
	}

	return nil
}
