package app

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"
)

// ErrTemplateNotFound is returned when a page template cannot be located.
var ErrTemplateNotFound = errors.New("template not found")

const (
	templateRoot    = "templates"
	htmlContentType = "text/html; charset=utf-8"
)

// TemplateRenderer is the engine's HTMLRender. It reads a web filesystem laid
// out as
//
//	templates/
//	  layouts/   page skeletons, e.g. base.html defining "base"
//	  partials/  fragments shared by every page, e.g. nav.html
//	  *.html     pages, named by their path below templates/ (orders.html, errors/404.html)
//
// Every page is compiled against its own copy of the layouts and partials, so
// pages may each define the "title" and "content" blocks of the layout.
//
// With reload set (debug mode) the files are read again for every render, so
// an edited or deleted template takes effect immediately. Otherwise they are
// compiled once by NewTemplateRenderer.
type TemplateRenderer struct {
	fsys   fs.FS
	reload bool
	pages  pageSet
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// pageSet maps page names to their compiled templates.
type pageSet map[string]*template.Template

// NewTemplateRenderer returns a renderer over fsys. Outside debug mode every
// template is compiled here and a broken one fails startup.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	if fsys == nil {
		return nil, errors.New("template filesystem is nil")
	}

	r := &TemplateRenderer{fsys: fsys, reload: debug}
	if debug {
		return r, nil
	}

	pages, err := loadPages(fsys)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.pages = pages
	return r, nil
}

// Instance implements render.HTMLRender. Lookup and parse failures are
// reported by the returned Render, which gin attaches to the context.
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	pages, err := r.load()
	if err == nil && pages[name] == nil {
		err = fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return &HTMLInstance{Template: pages[name], Name: name, Data: data, err: err}
}

// Has reports whether the page name can currently be rendered.
func (r *TemplateRenderer) Has(name string) bool {
	if r == nil {
		return false
	}
	pages, err := r.load()
	return err == nil && pages[name] != nil
}

func (r *TemplateRenderer) load() (pageSet, error) {
	if r.reload {
		return loadPages(r.fsys)
	}
	return r.pages, nil
}

// loadPages compiles every page under templates/ on top of the shared layouts
// and partials.
func loadPages(fsys fs.FS) (pageSet, error) {
	var shared, pages []string
	err := fs.WalkDir(fsys, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		top, _, nested := strings.Cut(strings.TrimPrefix(p, templateRoot+"/"), "/")
		if nested && (top == "layouts" || top == "partials") {
			shared = append(shared, p)
		} else {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", templateRoot, err)
	}

	base := template.New("")
	for _, file := range shared {
		if err := parseFile(base.New(file), fsys, file); err != nil {
			return nil, err
		}
	}

	set := make(pageSet, len(pages))
	for _, file := range pages {
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone shared templates for %s: %w", file, err)
		}
		name := strings.TrimPrefix(file, templateRoot+"/")
		if err := parseFile(page.New(name), fsys, file); err != nil {
			return nil, err
		}
		set[name] = page
	}
	return set, nil
}

func parseFile(t *template.Template, fsys fs.FS, file string) error {
	src, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	if _, err := t.Parse(string(src)); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

// HTMLInstance renders one page. Output is buffered so that a failed
// execution leaves the response unwritten for the error pages middleware.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error
}

// Render implements render.Render.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	if h.err != nil {
		return h.err
	}

	var buf bytes.Buffer
	if err := h.Template.ExecuteTemplate(&buf, h.Name, h.Data); err != nil {
		return fmt.Errorf("execute template %q: %w", h.Name, err)
	}
	h.WriteContentType(w)
	_, err := buf.WriteTo(w)
	return err
}

// WriteContentType implements render.Render.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", htmlContentType)
	}
}
