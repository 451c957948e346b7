package handlers

import (
	"errors"
	"net/http"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"
	"grid-backtest/internal/store"
	"grid-backtest/internal/venue"

	"github.com/adshao/go-binance/v2/common"
	"github.com/gin-gonic/gin"
)

// Error codes returned in ErrorDetail.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeUnavailable      = "NOT_CONFIGURED"
	CodeInternal         = "INTERNAL_ERROR"
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// classify maps an error to its HTTP status and code.
func classify(err error) (int, models.ErrorDetail) {
	detail := models.ErrorDetail{Message: err.Error()}

	var apiErr *common.APIError
	switch {
	case errors.Is(err, model.ErrInvalidParameter), errors.Is(err, venue.ErrUnknownSymbol):
		detail.Code = CodeInvalidParameter
		return http.StatusBadRequest, detail
	case errors.Is(err, model.ErrEmptyInput):
		detail.Code = CodeEmptyInput
		return http.StatusBadRequest, detail
	case errors.Is(err, store.ErrNotFound):
		detail.Code = CodeNotFound
		return http.StatusNotFound, detail
	case errors.As(err, &apiErr):
		detail.Code = CodeUpstream
		detail.Details = map[string]interface{}{
			"binance_code": apiErr.Code,
		}
		return http.StatusBadGateway, detail
	default:
		detail.Code = CodeInternal
		return http.StatusInternalServerError, detail
	}
}

// respondError writes err in the standard error envelope.
func respondError(c *gin.Context, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: detail})
}
