// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInput lets transport code report binding failures in the same shape.
func NewInvalidInput(fe ...FieldError) error { return newInvalidInput(fe) }

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// PageParams is the raw paging input of a search: the wire cursor, an
// optional size and the ordering. Normalization happens in the service.
type PageParams struct {
	Cursor    string
	Size      *int
	Direction slice.Direction
}

// CatalogService defines the use cases every catalog entity supports.
type CatalogService[T any] interface {
	Create(ctx context.Context, v T) (T, error)
	Get(ctx context.Context, id int64) (T, error)
	Update(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, page PageParams, filters ...slice.Option) (slice.Result[T], error)
}

// ContextService assembles everything code generation needs for a tech stack.
type ContextService interface {
	ConventionContext(ctx context.Context, techStackID int64, layerCodes []string) (ConventionContext, error)
}

// FeedbackService moves feedback through its review lifecycle.
type FeedbackService interface {
	Transition(ctx context.Context, id int64, action FeedbackAction) (model.Feedback, error)
}
