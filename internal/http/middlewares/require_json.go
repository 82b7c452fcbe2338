package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JSONBody caps the request body at max bytes and requires a JSON content
// type on writes that carry a body.
func JSONBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				abortJSON(c, http.StatusBadRequest, "invalid_request", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
