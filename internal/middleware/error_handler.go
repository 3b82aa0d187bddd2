package middleware

import (
	"net/http"

	"github.com/fairwaybook/teetime-service/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler is the central Echo error hook. Handlers translate service
// sentinels into *echo.HTTPError before returning, so by the time an error
// lands here it already carries its status code; anything untranslated is a
// 500. The body is always the dto.ErrorResponse envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
