// Package views is the rendering surface of the app. Handlers hand it a
// named view plus a context mapping and it produces the HTML response.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// Context is the mapping of recognized keys handed to a view. The handlers
// use a fixed vocabulary: page_obj, group, author, posts_count, following,
// post, form, comments.
type Context map[string]interface{}

// Renderer is the rendering collaborator the request handlers depend on.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data Context)
}

//go:embed templates/*.html
var templateFS embed.FS

// HTML renders views from the embedded template set.
type HTML struct {
	templates *template.Template
	logger    *zap.Logger
}

var _ Renderer = &HTML{}

// NewHTML parses the embedded templates and returns a ready renderer.
func NewHTML(logger *zap.Logger) (*HTML, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &HTML{
		templates: templates,
		logger:    logger,
	}, nil
}

// Render executes the named template into a buffer first, so a template error
// never leaks a half-written page to the client.
func (h *HTML) Render(w http.ResponseWriter, r *http.Request, name string, data Context) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render failed",
			zap.String("view", name),
			zap.Error(err),
		)
		http.Error(w, "Something went wrong rendering the page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
