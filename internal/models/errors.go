package models

import "errors"

// Configuration validation errors. Role templates and policies referencing
// resources or actions outside the closed enumerations are rejected at load
// time rather than silently changing authorization results.
var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownEffect   = errors.New("unknown policy effect")
)
