package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/logger"
)

const (
	summaryUnavailableMessage = "summary unavailable"
	internalErrorMessage      = "internal error"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// fail maps a service error to a status code. Unknown errors are logged and hidden.
func fail(c *gin.Context, err error) {
	cause := errors.Cause(err)
	switch {
	case expense.IsValidation(err), errors.Is(err, user.ErrInvalidID):
		abort(c, http.StatusBadRequest, cause.Error())
	case errors.Is(err, expense.ErrNotFound), errors.Is(err, user.ErrNotLinked):
		abort(c, http.StatusNotFound, cause.Error())
	case errors.Is(err, expense.ErrCategoryConflict), errors.Is(err, user.ErrTelegramTaken):
		abort(c, http.StatusConflict, cause.Error())
	default:
		logger.Error("request failed",
			zap.String("requestID", c.GetString(requestIDKey)),
			zap.Int64("userID", currentUser(c)),
			zap.Error(err),
		)
		abort(c, http.StatusInternalServerError, internalErrorMessage)
	}
}
