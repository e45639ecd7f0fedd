package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// measure counts requests by route pattern and status.
func (s *server) measure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
	}
}
