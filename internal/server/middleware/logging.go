package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// LogApi writes one access line per request, tagged with the authenticated user when known
func LogApi() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		user := "-"
		if id, ok := param.Keys[UserIDKey].(uint); ok {
			user = fmt.Sprint(id)
		}
		line := fmt.Sprintf("[%s] %s %s %d %s user=%s ip=%s bytes=%d",
			param.TimeStamp.UTC().Format("2006-01-02T15:04:05Z"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			user,
			param.ClientIP,
			param.BodySize,
		)
		if param.ErrorMessage != "" {
			line += " err=" + param.ErrorMessage
		}
		return line + "\n"
	})
}
