package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEFRA/pafs-backend-api-sub003/internal/transport/http/middleware"
)

// ErrorCase maps a sentinel error to an HTTP status, a stable client code,
// and an optional support hint.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
	Support string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, ErrorResponse{
				Error:   cs.Message,
				Code:    cs.Code,
				Support: cs.Support,
				TraceID: middleware.GetTraceID(c),
			})
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
