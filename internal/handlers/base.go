package handlers

import (
	"errors"
	"log"
	"net/http"
	"regintel/internal/services"

	"github.com/gin-gonic/gin"
)

// Error helper: one generic message per class, internals only go to the log.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, services.ErrPermissionDenied):
		status, message = http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, services.ErrInvalidArgument):
		status, message = http.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrEmailTaken):
		status, message = http.StatusConflict, "Email already registered"
	case errors.Is(err, services.ErrUpstream):
		status, message = http.StatusBadGateway, "Upstream service failed"
	case errors.Is(err, services.ErrNotConfigured):
		status, message = http.StatusServiceUnavailable, "Service unavailable"
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
