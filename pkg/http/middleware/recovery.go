package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"MarketTiming/pkg/logger"
)

type panicBody struct {
	Status int          `json:"status"`
	Data   []panicError `json:"data"`
}

type panicError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Recover turns a handler panic into a 500 in the API error envelope and
// logs the stack. Nothing is written if the handler already committed a
// response, which is the case for websocket upgrades.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("panic recovered",
					logger.Error(perr),
					logger.String("route", c.Path()),
					logger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					err = nil
					return
				}
				err = c.JSON(http.StatusInternalServerError, panicBody{
					Status: http.StatusInternalServerError,
					Data:   []panicError{{Code: "ERR_INTERNAL", Message: "internal server error"}},
				})
			}()
			return next(c)
		}
	}
}
