package services

import (
	"errors"

	"bunkhouse/internal/allocator"
)

var (
	ErrNotFound                      = errors.New("not found")
	ErrUnitUnavailable               = allocator.ErrUnitUnavailable
	ErrNoUnitsAvailable              = allocator.ErrNoUnitsAvailable
	ErrTokenAlreadyUsed              = errors.New("token already used")
	ErrTokenExpired                  = errors.New("token expired")
	ErrAssignedUnitNoLongerAvailable = errors.New("assigned unit no longer available")
	ErrNothingToUndo                 = errors.New("nothing to undo")
	ErrValidation                    = errors.New("validation failed")
	ErrProblemAlreadyResolved        = errors.New("problem already resolved")
)
