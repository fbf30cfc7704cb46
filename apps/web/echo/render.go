package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bbbviewer/core"
	"github.com/trezcool/bbbviewer/core/bbb"
)

const (
	tmplCourses = "courses"
	tmplCourse  = "course"
	tmplError   = "error"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmplFuncs = template.FuncMap{
	"plaintext":        plainText,
	"restrictionBlock": newRestrictionBlock,
}

type (
	// pageView is the data every page template is executed with.
	pageView struct {
		AppName    string
		AppVersion string
		bbb.Page

		// error pages
		Code    int
		Message string
	}

	restrictionBlock struct {
		Scope        string
		Title        string
		Restrictions []bbb.Restriction
	}
)

func newRestrictionBlock(scope, title string, restrictions []bbb.Restriction) restrictionBlock {
	return restrictionBlock{Scope: scope, Title: title, Restrictions: restrictions}
}

// renderer executes one template set per page, each made of the layout and the page file.
type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{tmplCourses, tmplCourse, tmplError} {
		tmpl, err := template.New(name).Funcs(tmplFuncs).ParseFS(
			templateFS,
			"templates/layout.gohtml",
			"templates/restrictions.gohtml",
			"templates/"+name+".gohtml",
		)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s template", name)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		// templates are embedded: a missing page means a broken build
		return core.NewShutdownError(fmt.Sprintf("template %q not found", name))
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// plainText flattens an HTML fragment (e.g. an activity intro) to its text.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
