package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-portfolio-crm/model"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Count   int               `json:"count,omitempty"`
	Details string            `json:"details,omitempty"`
}

// respondError maps domain errors onto status codes. Anything unrecognized
// is logged and reported as a 500 without detail.
func (h *handlers) respondError(c *gin.Context, err error) {
	var (
		invalid   *model.ValidationError
		notFound  *model.NotFoundError
		conflict  *model.ConflictError
		dependent *model.DependentsError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorBody{Error: "validation failed", Fields: invalid.Fields()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, errorBody{Error: notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, errorBody{Error: conflict.Error()})
	case errors.As(err, &dependent):
		c.JSON(http.StatusConflict, errorBody{Error: dependent.Error(), Count: dependent.Count})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}
