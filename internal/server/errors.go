package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/rastro/internal/auth/domain"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	messagedomain "github.com/smallbiznis/rastro/internal/message/domain"
	orderdomain "github.com/smallbiznis/rastro/internal/order/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	questiondomain "github.com/smallbiznis/rastro/internal/question/domain"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, biddomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrInvalidUsername),
		errors.Is(err, authdomain.ErrInvalidPassword),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidType),
		errors.Is(err, productdomain.ErrInvalidCategory),
		errors.Is(err, productdomain.ErrTooManyImages),
		errors.Is(err, productdomain.ErrAuctionEndRequired),
		errors.Is(err, productdomain.ErrAuctionEndInPast),
		errors.Is(err, productdomain.ErrAuctionEndMisused),
		errors.Is(err, productdomain.ErrAuctionTooLong),
		errors.Is(err, biddomain.ErrInvalidID),
		errors.Is(err, biddomain.ErrNotAuction),
		errors.Is(err, biddomain.ErrBidTooLow),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, shippingdomain.ErrMissingField),
		errors.Is(err, questiondomain.ErrInvalidID),
		errors.Is(err, questiondomain.ErrEmptyQuestion),
		errors.Is(err, questiondomain.ErrEmptyAnswer),
		errors.Is(err, messagedomain.ErrInvalidID),
		errors.Is(err, messagedomain.ErrEmptyContent),
		errors.Is(err, messagedomain.ErrSelfMessage):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, productdomain.ErrUnauthenticated),
		errors.Is(err, biddomain.ErrUnauthenticated),
		errors.Is(err, orderdomain.ErrUnauthenticated),
		errors.Is(err, shippingdomain.ErrUnauthenticated),
		errors.Is(err, questiondomain.ErrUnauthenticated),
		errors.Is(err, messagedomain.ErrUnauthenticated):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, productdomain.ErrNotSeller),
		errors.Is(err, biddomain.ErrOwnListing),
		errors.Is(err, orderdomain.ErrOwnListing),
		errors.Is(err, orderdomain.ErrNotBuyer),
		errors.Is(err, orderdomain.ErrNotSeller),
		errors.Is(err, orderdomain.ErrNotParticipant),
		errors.Is(err, orderdomain.ErrAddressNotOwned),
		errors.Is(err, questiondomain.ErrNotSeller),
		errors.Is(err, messagedomain.ErrNotAllowed),
		errors.Is(err, messagedomain.ErrNotParticipant):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, biddomain.ErrProductNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrProductNotFound),
		errors.Is(err, orderdomain.ErrAddressNotFound),
		errors.Is(err, orderdomain.ErrNoShippingAddress),
		errors.Is(err, shippingdomain.ErrNotFound),
		errors.Is(err, questiondomain.ErrNotFound),
		errors.Is(err, questiondomain.ErrProductNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, productdomain.ErrNotEditable),
		errors.Is(err, biddomain.ErrAuctionEnded),
		errors.Is(err, biddomain.ErrConflict),
		errors.Is(err, orderdomain.ErrProductUnavailable),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, orderdomain.ErrActiveOrderExists),
		errors.Is(err, orderdomain.ErrReceiptUnavailable),
		errors.Is(err, questiondomain.ErrAlreadyAnswered):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "empty_") {
		return strings.TrimPrefix(code, "empty_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if err != nil {
		code = err.Error()
	}
	return payload.Type, code
}
