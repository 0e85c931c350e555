package api

import (
	"net/http" // HTTP status codes
	"runtime"  // Memory statistics
	"time"     // Uptime

	"github.com/gin-gonic/gin" // Gin web framework
)

// HealthHandler reports process and database health. It answers 503 when the database is unreachable.
func HealthHandler(checker HealthChecker, started time.Time, environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		status, code := "OK", http.StatusOK
		body := gin.H{
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(started).Seconds(),
			"environment": environment,
			"memory": gin.H{
				"alloc":       mem.Alloc,
				"total_alloc": mem.TotalAlloc,
				"sys":         mem.Sys,
				"heap_in_use": mem.HeapInuse,
				"num_gc":      mem.NumGC,
				"goroutines":  runtime.NumGoroutine(),
			},
		}
		if checker != nil {
			db := checker.Health(c.Request.Context())
			body["database"] = db
			if db.Status != "healthy" {
				status, code = "DEGRADED", http.StatusServiceUnavailable
			}
		}
		body["status"] = status
		c.JSON(code, body)
	}
}
