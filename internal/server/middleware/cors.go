package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options. An origin of "*" allows
// every origin; origins such as "https://*.example.com" match subdomains.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows browser callers from any origin to run providers
// and read the session and trace ids.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Accept",
			"Accept-Encoding",
			"Authorization",
			"X-Account-Id",
			"X-Trace-ID",
		},
		ExposeHeaders: []string{"X-Session-Id", "X-Trace-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// WithOrigins returns a copy of cfg restricted to origins. Blank entries
// are ignored; an empty list keeps the configured origins.
func (cfg CORSConfig) WithOrigins(origins []string) CORSConfig {
	var kept []string
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			kept = append(kept, o)
		}
	}
	if len(kept) > 0 {
		cfg.AllowOrigins = kept
	}
	return cfg
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	for _, o := range cfg.AllowOrigins {
		switch {
		case o == "*":
			c.AllowAllOrigins = true
		case strings.Contains(o, "*"):
			c.AllowWildcard = true
			c.AllowOrigins = append(c.AllowOrigins, o)
		default:
			c.AllowOrigins = append(c.AllowOrigins, o)
		}
	}
	if c.AllowAllOrigins || len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		c.AllowOrigins = nil
	}
	return cors.New(c)
}
