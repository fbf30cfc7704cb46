package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bbbviewer/core"
	"github.com/trezcool/bbbviewer/core/bbb"
)

type bbbPages struct {
	deps Deps
	opts bbb.Options
}

func registerBBBPages(e *echo.Echo, deps Deps) {
	pages := bbbPages{
		deps: deps,
		opts: bbb.Options{
			Location:                deps.Conf.Location(),
			HideUnknownRestrictions: !deps.Conf.Restrictions.ShowUnknown,
		},
	}

	e.GET("/", pages.index)
}

// Handlers

// index renders the course list, or the sections of the course picked with ?course_id=N.
func (p *bbbPages) index(ctx echo.Context) error {
	var sel CourseSelector
	sel.Bind(ctx, p.deps)

	logger := requestLogger{Logger: p.deps.Logger, info: requestInfo(ctx)}
	mgr := bbb.NewManager(p.deps.MoodleAPI, logger, p.opts)
	mgr.Initialize(ctx.Request().Context(), sel.CourseID)

	page := mgr.Page()
	tmpl := tmplCourses
	if page.IsDetail() {
		tmpl = tmplCourse
	}
	return ctx.Render(http.StatusOK, tmpl, pageView{
		AppName:    p.deps.Conf.AppName,
		AppVersion: p.deps.Conf.AppVersion,
		Page:       page,
	})
}

// requestLogger tags every entry with the request it was logged for.
type requestLogger struct {
	core.Logger
	info core.RequestInfo
}

func (l requestLogger) Debug(msg string, args ...interface{}) {
	l.Logger.Debug(msg, append(args, l.info)...)
}

func (l requestLogger) Info(msg string, args ...interface{}) {
	l.Logger.Info(msg, append(args, l.info)...)
}

func (l requestLogger) Warn(msg string, args ...interface{}) {
	l.Logger.Warn(msg, append(args, l.info)...)
}

func (l requestLogger) Error(msg string, args ...interface{}) {
	l.Logger.Error(msg, append(args, l.info)...)
}
