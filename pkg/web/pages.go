// Package web renders server-side page shells from pre-parsed templates.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// DataFunc supplies the per-request data of a page.
type DataFunc func(*http.Request) any

// Page declares one routable page.
type Page struct {
	Route    string
	Template string
	Title    string
	Bundle   string
	Data     DataFunc
}

// PageData is the root value every template executes against.
type PageData struct {
	Title    string
	Bundle   string
	BasePath string
	// Path is the request path relative to BasePath.
	Path string
	Data any
}

// Options locate templates inside the page filesystem.
type Options struct {
	// LayoutGlob matches the layout templates, e.g. "layouts/*.html".
	LayoutGlob string
	// ViewDir is the directory page templates are resolved against.
	ViewDir string
	// Layout names the template each page executes.
	Layout   string
	BasePath string
	Logger   *slog.Logger
}

// Pages holds one template per page, each a clone of the layouts plus the
// page body, parsed once at construction.
type Pages struct {
	opts   Options
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewPages parses the layouts and every page template in fsys. Any parse
// failure aborts construction.
func NewPages(fsys fs.FS, opts Options, pages ...Page) (*Pages, error) {
	funcs := template.FuncMap{
		"url": func(parts ...string) string {
			return path.Join(append([]string{"/", opts.BasePath}, parts...)...)
		},
		"active": func(current, prefix string) bool {
			return current == prefix || strings.HasPrefix(current, prefix+"/")
		},
	}

	layouts, err := template.New("").Funcs(funcs).ParseFS(fsys, opts.LayoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	views, err := fs.Sub(fsys, opts.ViewDir)
	if err != nil {
		return nil, fmt.Errorf("open views: %w", err)
	}

	p := &Pages{
		opts:   opts,
		pages:  make(map[string]*template.Template, len(pages)),
		logger: slog.New(slog.DiscardHandler),
	}
	if opts.Logger != nil {
		p.logger = opts.Logger.With("system", "pages")
	}

	for _, page := range pages {
		if _, ok := p.pages[page.Template]; ok {
			continue
		}
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", page.Template, err)
		}
		if _, err := t.ParseFS(views, page.Template); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page.Template, err)
		}
		if t.Lookup(opts.Layout) == nil {
			return nil, fmt.Errorf("layout %q not defined for %s", opts.Layout, page.Template)
		}
		p.pages[page.Template] = t
	}

	return p, nil
}

// Handler renders page with status 200.
func (p *Pages) Handler(page Page) http.HandlerFunc {
	return p.StatusHandler(page, http.StatusOK)
}

// StatusHandler renders page with the given status. The body is rendered
// to a buffer first so a template failure still yields a clean 500.
func (p *Pages) StatusHandler(page Page, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Title:    page.Title,
			Bundle:   page.Bundle,
			BasePath: p.opts.BasePath,
			Path:     r.URL.Path,
		}
		if page.Data != nil {
			data.Data = page.Data(r)
		}

		var buf bytes.Buffer
		if err := p.render(&buf, page.Template, data); err != nil {
			p.logger.Error("page render failed", "page", page.Template, "uri", r.RequestURI, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		buf.WriteTo(w)
	}
}

func (p *Pages) render(buf *bytes.Buffer, name string, data PageData) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	return t.ExecuteTemplate(buf, p.opts.Layout, data)
}
