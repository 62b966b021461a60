package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/internal/auth"
	"github.com/mattyyyyyyy/JDO-AISPEECH/usecase"
)

// context key holding the authenticated client ID
const clientIDKey = "client_id"

// JWTAuth rejects requests without a valid token. Browsers cannot set
// headers on a WebSocket handshake, so ?token= is accepted as well.
func JWTAuth(issuer *auth.Issuer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				token = c.QueryParam("token")
			}

			if token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := issuer.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token",
					zap.String("path", c.Path()),
					zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			if claims.Role != auth.RoleClient {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Token role is not allowed",
				})
			}

			c.Set(clientIDKey, claims.ClientID)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// ClientID returns the authenticated client of the request
func ClientID(c echo.Context) string {
	id, _ := c.Get(clientIDKey).(string)
	return id
}

// RequestLogger logs one structured line per request
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remoteIP", v.RemoteIP),
				zap.String("requestID", v.RequestID),
			}
			if id := ClientID(c); id != "" {
				fields = append(fields, zap.String("clientID", id))
			}
			if v.Error != nil {
				logger.Error("Request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("Request", fields...)
			return nil
		},
	})
}

// room for the JSON fields around an inline audio payload
const diarizeEnvelopeBytes = 4 << 10

// BodyLimit returns the middleware.BodyLimit size for the configured
// megabytes, raised so a diarization request carrying the largest accepted
// audio still fits once base64 encoded.
func BodyLimit(configuredMB int) string {
	limit := configuredMB << 20
	if need := base64.StdEncoding.EncodedLen(usecase.MaxDiarizationAudioBytes) + diarizeEnvelopeBytes; need > limit {
		limit = need
	}
	return fmt.Sprintf("%dK", (limit+1023)/1024)
}
