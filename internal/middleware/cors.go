package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization"
	corsMaxAge  = "86400"
)

type corsPolicy struct {
	wildcard bool
	origins  map[string]struct{}
}

func newCORSPolicy(spec string) corsPolicy {
	p := corsPolicy{origins: map[string]struct{}{}}
	for _, o := range strings.Split(spec, ",") {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[strings.TrimRight(o, "/")] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.wildcard = true
	}
	return p
}

// allowed returns the Access-Control-Allow-Origin value for origin, or "".
func (p corsPolicy) allowed(origin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS sets cross-origin headers. allowedOrigins is "*" or a comma-separated
// list such as "http://localhost:5173,https://ukm.example.ac.id"; an empty
// list allows every origin. Preflight requests end here with 204.
func CORS(allowedOrigins string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)
	return func(c *gin.Context) {
		if !policy.wildcard {
			c.Writer.Header().Add("Vary", "Origin")
		}
		if allow := policy.allowed(c.GetHeader("Origin")); allow != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
