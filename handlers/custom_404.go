package handlers

import (
	"html/template"
	"net/http"
)

func (s *Site) Custom404Handler(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, s.Manifest.Templates.NotFound)
}

// ServerErrorHandler renders the generic error page. The cause is only
// logged, never shown.
func (s *Site) ServerErrorHandler(w http.ResponseWriter, r *http.Request, cause error) {
	s.logger().Debug("handlers.server_error", "path", r.URL.Path, "error", cause)
	s.renderStatus(w, r, http.StatusInternalServerError, s.Manifest.Templates.ServerError)
}

func (s *Site) renderStatus(w http.ResponseWriter, r *http.Request, status int, source string) {
	ctx := s.baseContext(r, s.Registry.Locale())

	content, err := s.renderPlushTemplate(source, ctx)
	if err != nil {
		s.logger().Error("handlers.status_page.failed", "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	// Set the status content in the base layout context
	ctx.Set("yield", template.HTML(content))

	page, err := s.renderPlushTemplate(s.Manifest.Templates.Layout, ctx)
	if err != nil {
		s.logger().Error("handlers.status_page.failed", "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(page))
}
