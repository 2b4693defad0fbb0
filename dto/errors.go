package dto

import "errors"

// Custom errors
var (
	// ErrExtractionFailure marks a document that could not be parsed. It is
	// recorded on ExtractionResult and never aborts an upload.
	ErrExtractionFailure = errors.New("extraction failed")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidHorizon    = errors.New("invalid forecast horizon")
	ErrInvalidFormat     = errors.New("invalid export format")
	ErrNoDataset         = errors.New("no dataset uploaded")
	ErrIOFailure         = errors.New("io failure")
	ErrNoFiles           = errors.New("no files provided")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoValidFiles      = errors.New("no valid PDF files")
	ErrInvalidFilter     = errors.New("invalid filter")
	// ErrCanceled marks work abandoned because the caller went away.
	ErrCanceled = errors.New("request canceled")
)
