package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "ledgerpulse/internal/errors"
	"ledgerpulse/pkg/contracts/domain"
)

// SearchParams is the validated form of a search request. The search
// term is capped at 200 characters.
type SearchParams struct {
	Query string `json:"q" validate:"max=200"`
}

// FeedParams is the validated form of a feed path segment
type FeedParams struct {
	Feed string `json:"feed" validate:"required,oneof=works expenses"`
}

// QueryValidator validates request parameters with struct tags and writes
// RFC 7807 responses for failures
type QueryValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryValidator creates a new query parameter validator
func NewQueryValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryValidator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator:    v,
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// Search returns the trimmed ?q= parameter. On failure it has already
// written the error response and returns false.
func (v *QueryValidator) Search(w http.ResponseWriter, r *http.Request) (string, bool) {
	params := SearchParams{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := v.ValidateStruct(params); err != nil {
		v.reject(w, r, err)
		return "", false
	}
	return params.Query, true
}

// Feed validates a feed name taken from the URL path
func (v *QueryValidator) Feed(w http.ResponseWriter, r *http.Request, name string) (domain.FeedKind, bool) {
	if err := v.ValidateStruct(FeedParams{Feed: name}); err != nil {
		v.reject(w, r, err)
		return "", false
	}
	kind, _ := domain.ParseFeedKind(name)
	return kind, true
}

// ValidateStruct validates a struct and returns validation errors
func (v *QueryValidator) ValidateStruct(s any) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

func (v *QueryValidator) reject(w http.ResponseWriter, r *http.Request, err error) {
	v.logger.DebugContext(r.Context(), "request parameters rejected",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	v.errorHandler.HandleError(w, r, err)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
