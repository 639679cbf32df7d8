package monitoring

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const slowRequestThreshold = 5 * time.Second

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)

		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		if statusCode >= 500 {
			for _, err := range c.Errors {
				logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
			}
		}

		if duration > slowRequestThreshold {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}
	}
}

// SecurityMonitoringMiddleware logs requests from known scanners and
// query strings carrying SQL injection patterns. It never blocks.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")
		details := make(map[string]interface{})

		query, err := url.QueryUnescape(c.Request.URL.RawQuery)
		if err != nil {
			query = c.Request.URL.RawQuery
		}

		if containsSQLInjectionPatterns(query) {
			details["type"] = "potential_sql_injection"
			details["query"] = c.Request.URL.RawQuery
		} else if containsSuspiciousUserAgent(userAgent) {
			details["type"] = "suspicious_user_agent"
		}

		if len(details) > 0 {
			details["path"] = c.Request.URL.Path
			logger.SecurityLogger("suspicious_activity_detected", c.ClientIP(), userAgent, details)
		}

		c.Next()
	}
}

var sqlInjectionPatterns = []string{
	"union select",
	"union all",
	"select * from",
	"drop table",
	"delete from",
	"';--",
	"/*",
	"*/",
}

var suspiciousAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
}

func containsSQLInjectionPatterns(query string) bool {
	return containsAny(query, sqlInjectionPatterns)
}

func containsSuspiciousUserAgent(userAgent string) bool {
	return containsAny(userAgent, suspiciousAgents)
}

func containsAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
