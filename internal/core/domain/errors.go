package domain

import "errors"

// Domain Errors
var (
	// ErrMalformedInput indicates a column from which no fit parameter can be derived.
	ErrMalformedInput = errors.New("malformed input")

	// ErrModelNotLoaded indicates a prediction was requested before an artifact was loaded.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrArtifactNotFound indicates the requested pipeline artifact does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrRecordNotFound indicates the requested CVE record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNotFitted indicates a transform was attempted with empty fit state.
	ErrNotFitted = errors.New("pipeline stage not fitted")

	// ErrNoTrainingData indicates no labelled rows survived cleaning.
	ErrNoTrainingData = errors.New("no labelled training rows")
)

// ErrUnknownLabel indicates a classifier produced a label outside the closed sets.
var ErrUnknownLabel = errors.New("unknown label")
