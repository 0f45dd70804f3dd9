package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed-origins" mapstructure:"allowed-origins"`
	AllowedMethods   []string `yaml:"allowed-methods" mapstructure:"allowed-methods"`
	AllowedHeaders   []string `yaml:"allowed-headers" mapstructure:"allowed-headers"`
	AllowCredentials bool     `yaml:"allow-credentials" mapstructure:"allow-credentials"`
}

// CORS returns a Gin middleware that sets CORS headers and answers
// OPTIONS preflight requests. With no allowed origins it does nothing.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !isAllowedOrigin(origin, cfg.AllowedOrigins) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		if len(cfg.AllowedMethods) > 0 {
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
		}
		if len(cfg.AllowedHeaders) > 0 {
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isAllowedOrigin(origin string, allowed []string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
