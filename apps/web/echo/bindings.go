package echoweb

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/bbbviewer/core"
)

// CourseSelector is the optional course picked by the user; zero selects the course list.
type CourseSelector struct {
	CourseID int `query:"course_id" validate:"omitempty,gt=0"`
}

// Bind reads the selector from the query string.
// Malformed or invalid values select the course list instead of failing the request.
func (sel *CourseSelector) Bind(ctx echo.Context, deps Deps) {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, sel); err != nil {
		deps.Logger.Debug("ignoring malformed course selector", err, requestInfo(ctx))
		sel.CourseID = 0
		return
	}
	if err := deps.Validate.Struct(sel); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			deps.Logger.Debug("ignoring invalid course selector", core.TranslateErrors(vErrs, deps.Translator), requestInfo(ctx))
		}
		sel.CourseID = 0
	}
}
