// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
)

// respondError maps domain errors onto HTTP status codes. Stock and state
// conflicts are 409s because the request was well-formed but lost against
// the current state of the world.
func respondError(c *gin.Context, err error) {
	var notFound *apperrors.NotFoundError
	var insufficientStock *apperrors.InsufficientStockError
	var invalidState *apperrors.InvalidStateError
	var invalidInput *apperrors.InvalidInputError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": notFound.Error(),
		})
	case errors.As(err, &insufficientStock):
		c.JSON(http.StatusConflict, gin.H{
			"error":      insufficientStock.Error(),
			"shortfalls": insufficientStock.Shortfalls,
		})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, gin.H{
			"error":          invalidState.Error(),
			"current_status": invalidState.CurrentStatus,
		})
	case errors.As(err, &invalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": invalidInput.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
