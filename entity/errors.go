package entity

import "errors"

var (
	ErrEmptyArtifact = errors.New("uploaded file is empty")
	ErrNoModelLoaded = errors.New("no model has been loaded for this session")
	ErrEmptyOutput   = errors.New("engine produced no output")

	ErrArchiveDisabled = errors.New("result archive is not configured")
	ErrArchiveNotFound = errors.New("archived result not found")
)

// ModelLoadError is returned when a model artifact could not be loaded.
type ModelLoadError struct {
	Err error
}

func (e *ModelLoadError) Error() string {
	return "error loading model: " + e.Err.Error()
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// ConversionError is returned when a conversion did not produce output.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return "error during conversion: " + e.Err.Error()
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
