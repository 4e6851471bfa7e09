package domain

import apperrors "histotrek/pkg/errors"

var (
	ErrNotAuthenticated = apperrors.NewUnauthorizedError("no user is logged in")
	ErrAdminRequired    = apperrors.NewForbiddenError("administrator role required")
	ErrNotOwner         = apperrors.NewForbiddenError("only the owner or an administrator may change this")
	ErrInvalidRating    = apperrors.NewValidationError("rating must be between 1 and 5")
	ErrEmptyReview      = apperrors.NewValidationError("review text must not be blank")
	ErrInvalidRole      = apperrors.NewValidationError("unknown role")
	ErrInvalidReport    = apperrors.NewValidationError("unknown report type")
)
