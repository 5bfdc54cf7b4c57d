// Package handlers contains the gin handlers for the HTTP API.
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError renders err with the status its code maps to.
func writeError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	resp := errorResponse{Code: code.String(), Message: err.Error()}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	c.AbortWithStatusJSON(code.HTTPStatus(), resp)
}
