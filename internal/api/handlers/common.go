package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadhub/committees/internal/services"
	"github.com/acadhub/committees/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
	Details any        `json:"details,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
			Details: errorDetails(err),
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// errorDetails surfaces the structured payload some domain errors carry: the
// conflicting session for scheduling conflicts, the violated rules for
// composition failures.
func errorDetails(err error) any {
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		return gin.H{
			"conflicting_session_id": conflict.ConflictingSessionID,
			"conflicting_time":       conflict.ConflictingTime,
		}
	}
	var composition *services.CompositionError
	if errors.As(err, &composition) {
		return composition.Report
	}
	return nil
}
