package handler

import (
	"net/http"

	"github.com/Astemirdum/book-service/pkg/errs"
	md "github.com/Astemirdum/book-service/pkg/middleware"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPErrorHandler renders every error as errs.Body. Only internal errors
// are logged; their detail never reaches the client.
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	appErr := errs.From(err)
	if appErr.Kind == errs.KindInternal {
		h.log.Error(appErr.Message,
			zap.Error(appErr.Err),
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.String("request_id", md.GetRequestID(c)),
		)
	}

	code := appErr.StatusCode()
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, appErr.Body())
	}
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}
