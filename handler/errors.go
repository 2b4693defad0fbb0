package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

// statusClientClosedRequest is the non-standard status for a request the
// client abandoned before the response was ready.
const statusClientClosedRequest = 499

type errorMapping struct {
	target error
	status int
	code   string
}

// Ordered: the first sentinel the error wraps decides the response.
var errorMappings = []errorMapping{
	{dto.ErrNoFiles, http.StatusBadRequest, "NO_FILES"},
	{dto.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{dto.ErrNoValidFiles, http.StatusBadRequest, "NO_VALID_FILES"},
	{dto.ErrInvalidFilter, http.StatusBadRequest, "INVALID_FILTER"},
	{dto.ErrUnknownMetric, http.StatusBadRequest, "UNKNOWN_METRIC"},
	{dto.ErrInvalidHorizon, http.StatusBadRequest, "INVALID_HORIZON"},
	{dto.ErrInvalidFormat, http.StatusBadRequest, "INVALID_FORMAT"},
	{dto.ErrInsufficientData, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
	{dto.ErrNoDataset, http.StatusNotFound, "NO_DATASET"},
	{dto.ErrCanceled, statusClientClosedRequest, "REQUEST_CANCELED"},
	{dto.ErrIOFailure, http.StatusInternalServerError, "IO_FAILURE"},
}

// classify maps an error onto an HTTP status and error code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// sendError sends a structured error response
func sendError(c *gin.Context, log *zap.Logger, message string, err error) {
	status, code := classify(err)
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	} else {
		log.Info(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	}

	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    status,
	})
}
