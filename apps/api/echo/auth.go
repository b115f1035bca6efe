package echoapi

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/evalboard/core"
)

const apiKeyHeader = "X-API-Key"

// apiKeyMiddleware protects write endpoints with the shared API key. An empty key disables the check.
func apiKeyMiddleware(key string) echo.MiddlewareFunc {
	keyAuth := middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + apiKeyHeader,
		Validator: func(k string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1, nil
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		authed := keyAuth(next)
		return func(ctx echo.Context) error {
			if key == "" {
				return next(ctx)
			}
			if ctx.Request().Header.Get(apiKeyHeader) == "" {
				return errMissingAPIKey
			}
			return authed(ctx)
		}
	}
}

// requestActor identifies the caller in logs.
func requestActor(ctx echo.Context) core.Actor {
	actor := core.Actor{ID: ctx.RealIP(), Name: "anonymous"}
	if ctx.Request().Header.Get(apiKeyHeader) != "" {
		actor.Name = "api key holder"
	}
	return actor
}
