package model

import "errors"

var (
	// Session related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid session token")

	// Resource related errors
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrAnnotatorNotFound = errors.New("annotator not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
