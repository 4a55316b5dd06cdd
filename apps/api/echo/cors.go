package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"

	"github.com/eduenglish/backend/core"
)

func corsMiddleware(allowedOrigins []string) echo.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowOriginFunc: originAllowed(allowedOrigins),
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions, http.MethodPatch,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return echo.WrapMiddleware(c.Handler)
}

// originAllowed accepts the whitelisted origins, any *.vercel.app deployment and any local dev server.
func originAllowed(whitelist []string) func(origin string) bool {
	return func(origin string) bool {
		if origin == "" || core.StringsContain(whitelist, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		host := u.Hostname()
		switch u.Scheme {
		case "https":
			return strings.HasSuffix(host, ".vercel.app")
		case "http":
			return host == "localhost" || host == "127.0.0.1" || strings.HasSuffix(host, ".vercel.app")
		}
		return false
	}
}
