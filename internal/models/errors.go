package models

import "errors"

var (
	// ErrExtractionFailed is reported when no strategy produced enough text
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrExtractionTimeout is returned when extraction exceeds its time guard
	ErrExtractionTimeout = errors.New("extraction timed out")
	// ErrFileTooLarge is returned when a file exceeds the size guard
	ErrFileTooLarge = errors.New("file too large")
	ErrCorpusLoad   = errors.New("corpus could not be loaded")
	// ErrNoConfidentMatch is reported when no retrieval tier cleared its gate
	ErrNoConfidentMatch = errors.New("no confident match")
	ErrEmptyQuery       = errors.New("question is empty")
	ErrNoFile           = errors.New("no file provided")
)
