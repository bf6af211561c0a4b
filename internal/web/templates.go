package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	webembed "github.com/erazemk/omara/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"canModerate": func(c *auth.Claims) bool { return c.CanModerate() },
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleUser:
				return "Member"
			default:
				return role
			}
		},
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusPending:
				return "Awaiting approval"
			case model.ItemStatusActive:
				return "Available"
			case model.ItemStatusSwapped:
				return "Swapped"
			case model.ItemStatusRemoved:
				return "Removed"
			default:
				return status
			}
		},
		"swapTypeName": func(t string) string {
			if t == model.SwapTypePoints {
				return "Points"
			}
			return "Direct swap"
		},
		"date": func(t time.Time) string { return t.Format("2 Jan 2006") },
		"deref": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
		"stars": func(avg float64) string { return fmt.Sprintf("%.1f", avg) },
	}
}

var pages = []string{
	"login.html",
	"register.html",
	"browse.html",
	"item_new.html",
	"item_detail.html",
	"dashboard.html",
	"admin.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.Templates()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with an explicit status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB           *sql.DB
	Templates    *Templates
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	Images       *imaging.Processor
}

// page builds the base data, picking up the flash message left by redirectTo.
func (s *Server) page(r *http.Request, title string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:   title,
		User:    GetWebClaims(r.Context()),
		Error:   q.Get("error"),
		Success: q.Get("ok"),
	}
}

// redirectTo sends the browser to path with err or success as a flash message.
func redirectTo(w http.ResponseWriter, r *http.Request, path string, err error, success string) {
	q := url.Values{}
	switch {
	case err != nil:
		q.Set("error", userMessage(err))
	case success != "":
		q.Set("ok", success)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
