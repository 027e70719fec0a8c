package services

import (
	"errors"
	"net/http"

	"flowcanvas/domain/core/aggregates"
	"flowcanvas/domain/interaction"
	pkgerrors "flowcanvas/pkg/errors"
)

// translate maps domain errors to application errors at the service boundary
func translate(err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, aggregates.ErrInvalidEndpoint):
		return pkgerrors.NewValidationError(err.Error()).
			WithCode(pkgerrors.CodeInvalidEndpoint).
			WithStatus(http.StatusUnprocessableEntity).
			WithCause(err)
	case errors.Is(err, aggregates.ErrDuplicateEdge):
		return pkgerrors.NewConflictError(err.Error()).
			WithCode(pkgerrors.CodeDuplicateEdge).
			WithCause(err)
	case errors.Is(err, aggregates.ErrSelfLoop):
		return pkgerrors.NewValidationError(err.Error()).
			WithCode(pkgerrors.CodeSelfLoop).
			WithCause(err)
	case errors.Is(err, aggregates.ErrStaleNodeReference):
		return pkgerrors.NewNotFoundError("node").
			WithCode(pkgerrors.CodeStaleNodeReference).
			WithCause(err)
	case errors.Is(err, aggregates.ErrNodeNotFound):
		return pkgerrors.NewNotFoundError("node").WithCause(err)
	case errors.Is(err, aggregates.ErrEdgeNotFound):
		return pkgerrors.NewNotFoundError("edge").
			WithCode(pkgerrors.CodeEdgeNotFound).
			WithCause(err)
	case errors.Is(err, aggregates.ErrGraphLimit):
		return pkgerrors.NewLimitError(err.Error()).
			WithCode(pkgerrors.CodeGraphLimit).
			WithCause(err)
	case errors.Is(err, interaction.ErrUnknownDropPayload):
		return pkgerrors.NewValidationError(err.Error()).
			WithCode(pkgerrors.CodeUnknownDropPayload).
			WithCause(err)
	case errors.Is(err, interaction.ErrInvalidHandle):
		return pkgerrors.NewValidationError(err.Error()).
			WithCode(pkgerrors.CodeInvalidGesture).
			WithCause(err)
	}
	return pkgerrors.NewInternalError("canvas operation failed").WithCause(err)
}

// reason is the short label used in logs, metrics and ignored gesture results
func reason(err error) string {
	if appErr := pkgerrors.GetAppError(translate(err)); appErr != nil && appErr.Code != "" {
		return appErr.Code
	}
	return "ERROR"
}
