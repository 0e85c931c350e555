package middleware

import (
	"fmt"           // Formatting panic values
	"io"            // Access log destination
	"net/http"      // HTTP status codes
	"runtime/debug" // Stack traces
	"strings"       // Path checks
	"time"          // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RequestLogger writes one combined-style access line per request to out
func RequestLogger(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: out,
		Formatter: func(p gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - - [%s] \"%s %s %s\" %d %d \"%s\" \"%s\" %s\n",
				p.ClientIP,
				p.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
				p.Method,
				p.Path,
				p.Request.Proto,
				p.StatusCode,
				p.BodySize,
				p.Request.Referer(),
				p.Request.UserAgent(),
				p.Latency.Round(time.Microsecond),
			)
		},
	})
}

// Recovery turns panics into a 500 envelope; outside production the message and stack are echoed
func Recovery(isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			stack := string(debug.Stack())
			logrus.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"ip":     c.ClientIP(),
				"panic":  fmt.Sprint(rec),
				"stack":  stack,
			}).Error("Unhandled panic")

			body := gin.H{"success": false, "message": "Error interno del servidor"}
			if !isProd {
				body["message"] = fmt.Sprint(rec)
				body["stack"] = stack
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}

// SecurityHeaders sets the browser hardening headers on every response
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-XSS-Protection", "0")
		h.Set("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline' https://fonts.googleapis.com https://cdnjs.cloudflare.com; "+
				"font-src 'self' https://fonts.gstatic.com https://cdnjs.cloudflare.com; "+
				"script-src 'self' https://cdnjs.cloudflare.com; img-src 'self' data: https:")
		c.Next()
	}
}

// IsAPIPath reports whether path belongs to the JSON API
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
