package domain

import "errors"

var (
	ErrYearExists    = errors.New("year already exists")
	ErrYearNotFound  = errors.New("year not found")
	ErrInvalidYear   = errors.New("invalid_year")
	ErrInvalidMonths = errors.New("invalid_months")
)
