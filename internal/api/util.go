package api

import "github.com/gin-gonic/gin"

// currentTelegramID returns the authenticated player's telegram id, or
// an empty string when the middleware did not run.
func currentTelegramID(c *gin.Context) string {
	v, ok := c.Get(ctxTelegramID)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
