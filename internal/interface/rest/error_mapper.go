package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/pkg/logger"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string                  `json:"message"`
	Code    entity.ErrorKind        `json:"code"`
	Errors  []entity.FieldViolation `json:"errors,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// HTTPErrorInfo contains the HTTP status code and message for an error
type HTTPErrorInfo struct {
	Status  int
	Code    entity.ErrorKind
	Message string
}

// ErrorMapping represents a single error to HTTP status/message mapping
type ErrorMapping struct {
	Error   error
	Status  int
	Code    entity.ErrorKind
	Message string
}

// ErrorMapper maps domain errors to HTTP status codes and messages
type ErrorMapper struct {
	mappings    []ErrorMapping
	development bool
	logger      logger.Logger
}

// NewErrorMapper creates the reservation error mapper. In development mode
// responses carry the underlying error text.
func NewErrorMapper(development bool, logger logger.Logger) *ErrorMapper {
	return &ErrorMapper{
		development: development,
		logger:      logger,
		mappings: []ErrorMapping{
			{Error: entity.ErrValidation, Status: http.StatusBadRequest, Code: entity.KindValidation, Message: "Validation failed"},
			{Error: entity.ErrAccess, Status: http.StatusBadRequest, Code: entity.KindAccess},
			{Error: entity.ErrNotFound, Status: http.StatusNotFound, Code: entity.KindNotFound, Message: "Reservation not found"},
			{Error: entity.ErrUnauthorized, Status: http.StatusUnauthorized, Code: entity.KindUnauthorized, Message: "Staff authorization required"},
		},
	}
}

// Map converts an error to HTTP status, code and message
func (m *ErrorMapper) Map(err error) HTTPErrorInfo {
	if errors.Is(err, context.DeadlineExceeded) {
		return HTTPErrorInfo{Status: http.StatusGatewayTimeout, Code: entity.KindInternal, Message: "Request timeout"}
	}
	if errors.Is(err, context.Canceled) {
		return HTTPErrorInfo{Status: http.StatusServiceUnavailable, Code: entity.KindInternal, Message: "Request cancelled"}
	}

	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			msg := mapping.Message
			if msg == "" {
				msg = err.Error()
			}
			return HTTPErrorInfo{Status: mapping.Status, Code: mapping.Code, Message: msg}
		}
	}

	return HTTPErrorInfo{Status: http.StatusInternalServerError, Code: entity.KindInternal, Message: "Internal server error"}
}

// Body builds the response body for err
func (m *ErrorMapper) Body(err error) (int, ErrorResponse) {
	info := m.Map(err)
	body := ErrorResponse{Message: info.Message, Code: info.Code}

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Violations
	}
	if m.development {
		body.Error = err.Error()
	}
	return info.Status, body
}

// HandleError is an echo.HTTPErrorHandler rendering domain errors and echo
// routing errors in the same body shape
func (m *ErrorMapper) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body ErrorResponse

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body = ErrorResponse{Message: http.StatusText(he.Code), Code: kindForStatus(he.Code)}
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Message = msg
		}
		if m.development && he.Internal != nil {
			body.Error = he.Internal.Error()
		}
	} else {
		status, body = m.Body(err)
	}

	if status >= http.StatusInternalServerError {
		m.logger.Error("Request failed",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"requestID", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		m.logger.Warn("Failed to write error response", "error", writeErr)
	}
}

func kindForStatus(status int) entity.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return entity.KindValidation
	case http.StatusUnauthorized:
		return entity.KindUnauthorized
	case http.StatusForbidden:
		return entity.KindAccess
	case http.StatusNotFound:
		return entity.KindNotFound
	}
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return entity.KindBadRequest
	}
	return entity.KindInternal
}
