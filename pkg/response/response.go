package response

import (
	"net/http"

	"GuardianAI/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body is the envelope every JSON endpoint answers with.
type Body struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func Success(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Body{Code: errors.CodeOK, Msg: msg, Data: data})
}

func Created(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusCreated, Body{Code: errors.CodeOK, Msg: msg, Data: data})
}

// Fail answers 400 with the generic invalid-input code.
func Fail(c *gin.Context, msg string, data any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Body{Code: errors.CodeInvalidInput, Msg: msg, Data: data})
}

// Error maps a coded error to its HTTP status and code.
func Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeOK {
		code = errors.CodeInternal
	}
	c.AbortWithStatusJSON(errors.HTTPStatus(err), Body{Code: code, Msg: errors.GetMessage(err), Data: nil})
}
