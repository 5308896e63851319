package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"tagwise-console/internal/model"
	"tagwise-console/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home",
	"login",
	"signup",
	"verify",
	"unauthorized",
	"error",
	"admin_dashboard",
	"datasets",
	"dataset_new",
	"dataset_detail",
	"dataset_assign",
	"annotators",
	"options",
	"annotator_tasks",
	"annotate",
}

// Page is what every template receives.
type Page struct {
	Title        string
	User         *model.Identity
	Role         model.Role
	Notification *model.Notification
	SidebarOpen  bool
	Path         string
	Data         any
}

func (p Page) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

func (p Page) IsAnnotator() bool {
	return p.Role == model.RoleAnnotator
}

type Views struct {
	pages   map[string]*template.Template
	manager *session.Manager
}

var templateFuncs = template.FuncMap{
	"percent": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
	"ratio": func(done int, total int) float64 {
		if total <= 0 {
			return 0
		}
		return float64(done) * 100 / float64(total)
	},
	"optionalScore": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", *v)
	},
	"lower": strings.ToLower,
}

func NewViews(manager *session.Manager) (*Views, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Views{pages: pages, manager: manager}, nil
}

// Render executes a page inside the layout. The output is buffered so a
// template failure still produces a clean 500.
func (v *Views) Render(w http.ResponseWriter, r *http.Request, status int, name string, title string, data any) {
	tmpl, ok := v.pages[name]
	if !ok {
		slog.Error("unknown page template", "page", name)
		http.Error(w, "Unexpected server error", http.StatusInternalServerError)
		return
	}

	page := v.page(r, title, data)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		slog.Error("render page failed", "page", name, "error", err)
		http.Error(w, "Unexpected server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (v *Views) page(r *http.Request, title string, data any) Page {
	page := Page{Title: title, Path: r.URL.Path, Data: data, SidebarOpen: true}

	if state := session.StateFromContext(r.Context()); state != nil && state.IsAuthenticated() {
		identity := *state.Identity
		page.User = &identity
		page.Role = state.Role()
	}

	if clientID, ok := session.ClientIDFromContext(r.Context()); ok {
		page.SidebarOpen = v.manager.SidebarOpen(r.Context(), clientID)
		if n, err := v.manager.Notification(r.Context(), clientID); err == nil {
			page.Notification = n
		}
	}

	return page
}

type errorPage struct {
	Status  int
	Message string
}

func (v *Views) ErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, r, status, "error", http.StatusText(status), errorPage{Status: status, Message: message})
}
