package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain"
)

// HTTP status for each provider failure kind
var kindStatus = map[domain.ErrorKind]int{
	domain.KindRegionUnsupported:    http.StatusUnavailableForLegalReasons,
	domain.KindInvalidCredential:    http.StatusBadGateway,
	domain.KindSafetyBlocked:        http.StatusUnprocessableEntity,
	domain.KindRecitationBlocked:    http.StatusUnprocessableEntity,
	domain.KindModelRefusalWithText: http.StatusUnprocessableEntity,
	domain.KindNoContentReturned:    http.StatusBadGateway,
	domain.KindMalformedResponse:    http.StatusBadGateway,
	domain.KindTransportError:       http.StatusBadGateway,
}

// providerError writes the response for a failed provider-backed operation.
// The body carries the localized message meant for end users.
func providerError(c echo.Context, err error, logger *zap.Logger) error {
	if domain.IsValidation(err) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}

	var appErr *domain.Error
	if errors.As(err, &appErr) {
		status, ok := kindStatus[appErr.Kind]
		if !ok {
			status = http.StatusBadGateway
		}
		logger.Warn("Provider call failed",
			zap.String("kind", string(appErr.Kind)),
			zap.Int("status", status),
			zap.Error(err))
		return c.JSON(status, ErrorResponse{
			Error:   string(appErr.Kind),
			Message: appErr.Message,
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("Provider call timed out", zap.Error(err))
		return c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "timeout",
			Message: domain.ErrTransport.Message,
		})
	}

	logger.Error("Unclassified provider error", zap.Error(err))
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   string(domain.KindTransportError),
		Message: domain.ErrTransport.Message,
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}
