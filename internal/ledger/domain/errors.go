package domain

import "errors"

var (
	ErrPeriodNotFound     = errors.New("balance period not found")
	ErrPeriodExists       = errors.New("balance period already exists")
	ErrPeriodDisabled     = errors.New("period is not enabled")
	ErrInvalidYear        = errors.New("invalid_year")
	ErrInvalidMonth       = errors.New("invalid_month")
	ErrInvalidKind        = errors.New("invalid_type")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidDelta       = errors.New("invalid_delta")
	ErrInvalidDescription = errors.New("invalid_description")
)
