package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "show", "new", "edit", "not_found", "bad_request", "error"}

type views struct {
	pages map[string]*template.Template
}

// pageData is what every template receives.
type pageData struct {
	Title  string
	Notice string
	Task   *domain.Task
	Tasks  []domain.Task
}

func mustLoadViews() *views {
	v, err := loadViews()
	if err != nil {
		panic(err)
	}
	return v
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/_form.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		v.pages[page] = tmpl
	}
	return v, nil
}

// render writes page with status. The page is executed into a buffer first so
// a template error never produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := s.views.pages[page]
	if !ok {
		log.WithField("page", page).Error("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if notice := popFlash(w, r); notice != "" && data.Notice == "" {
		data.Notice = notice
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.WithError(err).WithField("page", page).Error("rendering template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
