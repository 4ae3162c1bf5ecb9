package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/vivahsetu/vivahsetu-backend/pkg/i18n"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

// APIResponse standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination and additional metadata
type Meta struct {
	Page    int   `json:"page,omitempty"`
	Limit   int   `json:"limit,omitempty"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// LocaleKey is the gin context key holding the negotiated i18n.Locale
const LocaleKey = "locale"

func locale(c *gin.Context) i18n.Locale {
	if v, ok := c.Get(LocaleKey); ok {
		if l, ok := v.(i18n.Locale); ok {
			return l
		}
	}
	return i18n.LocaleEn
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// MessageResponse returns a successful response carrying a localized message
func MessageResponse(c *gin.Context, messageKey string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Message: i18n.Default().T(locale(c), messageKey),
	})
}

// ErrorResponse returns an error JSON response for an explicit status
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	errInfo := &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
		Details: Detail(err),
	}

	c.JSON(status, APIResponse{Success: false, Error: errInfo})
}

// HandleError classifies err and writes the matching envelope.
// Internal and store failures are logged; their cause never reaches the client.
func HandleError(c *gin.Context, err error) {
	kind := Classify(err)
	if kind.Status >= http.StatusInternalServerError {
		log := zerolog.Ctx(c.Request.Context())
		if log.GetLevel() == zerolog.Disabled {
			log = pkglogger.GetLogger()
		}
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.JSON(kind.Status, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    kind.Code,
			Message: i18n.Default().T(locale(c), kind.MessageKey),
			Details: Detail(err),
		},
	})
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	case 503:
		return "STORE_UNAVAILABLE"
	default:
		return "ERROR"
	}
}
