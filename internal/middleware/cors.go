package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"slurm-agent-proxy/internal/config"
)

// CORS returns the cross-origin middleware for cfg. With a wildcard origin
// and credentials allowed, the caller's Origin is echoed back, since browsers
// reject a literal "*" on credentialed requests.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowCredentials:                         cfg.Credentials(),
		UnsafeWildcardOriginWithAllowCredentials: cfg.Credentials(),
	})
}
