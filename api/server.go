package api

import (
	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/auth"
	"github.com/tidepool-org/caretrack/errors"
)

func NewServer(handler *Handler, healthCheck *HealthCheck, authenticator auth.Authenticator, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Skip auth and logging for readiness probe
	skipper := RouteSkipper([]string{"/ready"})
	authMiddleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{
		Skipper: skipper,
	})
	loggerMiddleware := skip(skipper, echozap.ZapLogger(logger))

	e.Use(middleware.Recover())
	e.Use(loggerMiddleware)
	e.Use(authMiddleware)

	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	e.POST("/v1/summaries/rebuild", handler.RebuildSummary)

	return e
}

// RouteSkipper matches requests by their registered route path
func RouteSkipper(routes []string) middleware.Skipper {
	routesMap := map[string]struct{}{}
	for _, route := range routes {
		routesMap[route] = struct{}{}
	}

	return func(ec echo.Context) bool {
		_, ok := routesMap[ec.Path()]
		return ok
	}
}

func skip(skipper middleware.Skipper, m echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		wrapped := m(next)
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}
			return wrapped(c)
		}
	}
}
