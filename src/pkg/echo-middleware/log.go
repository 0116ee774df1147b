package echomw

import (
	"time"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		LogRouteAccess(c, tl.Info, "Accessing route", palette.Blue)
		err := next(c)
		tl.Log(
			tl.Info1, palette.Green, "%s: Method='%s', Path='%s', Status='%d', Took='%s'",
			"Route accessed", c.Request().Method, c.Path(), c.Response().Status, time.Since(start).Round(time.Millisecond),
		)
		return err
	}
}

// Log route access
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	if c.Path() == "/healthz" {
		logLevel = tl.Verbose
		colorizer = palette.CyanDim
	}
	tl.Log(logLevel, colorizer, "%s: Method='%s', Path='%s', ClientIP='%s'", actionName, c.Request().Method, c.Path(), c.RealIP())
}
