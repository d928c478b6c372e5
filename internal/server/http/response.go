package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/dmitrijs2005/vars/internal/server/throttle"
	"github.com/gin-gonic/gin"
)

// Response codes carried in the body. Transport status is 200 for every
// handled request, failures included.
const (
	CodeSuccess         = 0
	CodeDatabase        = 1001
	CodeAuth            = 2001
	CodeNotFound        = 2002
	CodeBadRequest      = 2003
	CodeHashPassword    = 2004
	CodeConflict        = 2005
	CodeTooManyAttempts = 2006
)

// Response is the envelope of every JSON answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: "success", Data: data})
}

func fail(c *gin.Context, err error) {
	code, msg := classify(err)
	c.AbortWithStatusJSON(http.StatusOK, Response{Code: code, Message: msg})
}

// classify maps an error to its response code and client-facing message.
// Messages never include wrapped detail except for validation failures.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return CodeAuth, auth.ErrMissingCredentials.Error()
	case errors.Is(err, auth.ErrWrongCredentials):
		return CodeAuth, auth.ErrWrongCredentials.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		return CodeAuth, auth.ErrInvalidToken.Error()
	case errors.Is(err, auth.ErrTokenCreation):
		return CodeAuth, auth.ErrTokenCreation.Error()
	case errors.Is(err, common.ErrorForbidden):
		return CodeAuth, common.ErrorForbidden.Error()
	case errors.Is(err, auth.ErrHashBackend):
		return CodeHashPassword, auth.ErrHashBackend.Error()
	case errors.Is(err, common.ErrorNotFound):
		return CodeNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrorValidation):
		return CodeBadRequest, err.Error()
	case errors.Is(err, errBadRequest):
		return CodeBadRequest, errBadRequest.Error()
	case errors.Is(err, common.ErrorConflict):
		return CodeConflict, common.ErrorConflict.Error()
	case errors.Is(err, throttle.ErrTooManyAttempts):
		return CodeTooManyAttempts, throttle.ErrTooManyAttempts.Error()
	default:
		return CodeDatabase, "database error"
	}
}

var errBadRequest = errors.New("bad request")
