package api

import (
	"github.com/gin-gonic/gin"

	apperrors "framework-search/internal/common/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// abort renders err and stops the handler chain.
func abort(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(stdErr.HTTPStatus(), ErrorResponse{Message: publicMessage(stdErr)})
}

// publicMessage hides internal details of server-side failures.
func publicMessage(stdErr *apperrors.StandardError) string {
	if stdErr.Code == apperrors.ErrCodeInternal {
		return "Internal server error"
	}
	return stdErr.Message
}
