package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrisnap/backend/internal/types"
)

// RespondError writes the standard error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, types.ErrorEnvelope{
		Error: types.APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
