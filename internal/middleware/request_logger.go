package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
)

// RequestLogger trace chaque requête au format JSON du package logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := "INFO"
		if status >= 500 {
			level = "ERROR"
		} else if status >= 400 {
			level = "WARN"
		}

		logs.LogJSON(level, "Request handled", map[string]interface{}{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
