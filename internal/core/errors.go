// Package core defines the fundamental types and errors for LifeTrack.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Validation errors - the only class surfaced to API callers
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidHorizon  = errors.New("forecast horizon must be positive")
	ErrInvalidRange    = errors.New("start date must not be after end date")
	ErrUnknownEntity   = errors.New("unknown entity type")
	ErrUnknownPeriod   = errors.New("unknown aggregation period")
	ErrMissingRequired = errors.New("missing required field")

	// Storage errors
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrMigrationFailed = errors.New("migration failed")

	// Model errors
	ErrModelNotTrained     = errors.New("priority model has not been trained")
	ErrInsufficientSamples = errors.New("not enough samples to train model")
)
