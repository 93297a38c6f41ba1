package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	govalidator "github.com/go-playground/validator/v10"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/middleware"
	"keepsake/internal/uuid"
	"keepsake/internal/validator"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter. Malformed ids are reported as
// notFound, so a probe cannot tell a bad id from someone else's entry.
func parsePathID(c *gin.Context, param string, notFound error) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", notFound
	}
	return id, nil
}

// parseVersionNumber reads the positive story version number from the path.
func parseVersionNumber(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("version"))
	if err != nil || n < 1 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid version")
	}
	return n, nil
}

func respondWithError(c *gin.Context, err error) {
	middleware.RenderError(c, err)
}

func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// validationError reports the first failed binding rule as a field-level
// VALIDATION_ERROR. Malformed bodies stay INVALID_INPUT.
func validationError(err error) error {
	var verrs govalidator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.Validationf(verrs[0].Field(), validator.Message(verrs[0]))
	}
	return bindError(err)
}

// NotFound answers requests that match no route.
func NotFound(c *gin.Context) {
	respondWithError(c, apperrors.ErrNotFound)
}
