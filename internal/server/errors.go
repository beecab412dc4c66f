package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/authorization"
	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	chatdomain "github.com/AndreaSpaggiari/sito-andrea/internal/chat/domain"
	handballdomain "github.com/AndreaSpaggiari/sito-andrea/internal/handball/domain"
	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
	ErrUnavailable     = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}

	case errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, permissiondomain.ErrInvalidState):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, workorderdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{Type: "invalid_transition", Message: "order is not in a state that allows this step"}

	case errors.Is(err, handballdomain.ErrDuplicate):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "conflict"}

	case errors.Is(err, workorderdomain.ErrInvalidDescriptor),
		errors.Is(err, workorderdomain.ErrMissingTarget):
		return http.StatusUnprocessableEntity, errorPayload{Type: "invalid_descriptor", Message: "descriptor is missing a required target"}

	case errors.Is(err, intakedomain.ErrExtractionFailed):
		return http.StatusBadGateway, errorPayload{Type: "extraction_failed", Message: "document extraction failed"}

	case errors.Is(err, intakedomain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, errorPayload{Type: "unsupported_media", Message: "unsupported image type"}

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{Type: "too_many_requests", Message: "too many requests"}

	case errors.Is(err, ErrUnavailable),
		errors.Is(err, intakedomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{Type: "service_unavailable", Message: "service unavailable"}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, workorderdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, permissiondomain.ErrInvalidID),
		errors.Is(err, permissiondomain.ErrInvalidSection),
		errors.Is(err, handballdomain.ErrInvalidID),
		errors.Is(err, handballdomain.ErrInvalidName),
		errors.Is(err, handballdomain.ErrInvalidScore),
		errors.Is(err, handballdomain.ErrSameTeam),
		errors.Is(err, chatdomain.ErrEmptyBody),
		errors.Is(err, chatdomain.ErrBodyTooLong),
		errors.Is(err, chatdomain.ErrInvalidID),
		errors.Is(err, intakedomain.ErrEmptyImage),
		errors.Is(err, productiondomain.ErrInvalidRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, workorderdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, permissiondomain.ErrNotFound),
		errors.Is(err, handballdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog buckets handler errors for the request log so
// dashboards can split client mistakes from real failures.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth_error", payload.Type
	default:
		return "client_error", payload.Type
	}
}
