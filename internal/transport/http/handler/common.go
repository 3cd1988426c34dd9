package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/transport/http/middleware"
	"github.com/Gopikaa27/Rag-Agent/internal/transport/http/response"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok && userID != 0
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}

// writeAppError maps the error taxonomy onto HTTP statuses. fallback is
// the message for errors that carry no classification.
func writeAppError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedFormat, err.Error())
	case errors.Is(err, apperr.ErrCorruptFile):
		response.Error(c, http.StatusBadRequest, response.CodeCorruptFile, err.Error())
	case errors.Is(err, apperr.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, err.Error())
	case errors.Is(err, apperr.ErrGenerationFailed):
		response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, err.Error())
	case errors.Is(err, apperr.ErrServiceUnavailable), errors.Is(err, apperr.ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeUpstreamDown, err.Error())
	case errors.Is(err, apperr.ErrInvalidConfiguration):
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
