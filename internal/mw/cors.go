package mw

import (
	"github.com/gin-gonic/gin"
)

// CORS headers sent on every response.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	AllowHeaders = "Content-Type"
)

// CORS sets the cross-origin headers before the handler runs so they are
// present on every response, including errors, route misses and 429s.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", AllowOrigin)
		h.Set("Access-Control-Allow-Methods", AllowMethods)
		h.Set("Access-Control-Allow-Headers", AllowHeaders)
		c.Next()
	}
}
