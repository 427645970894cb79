package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// internalError writes a 500. The real error text is only exposed when the
// handler was wired with detail exposure enabled (non-production config).
func internalError(c *gin.Context, expose bool, err error) {
	msg := "internal server error"
	if expose && err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
