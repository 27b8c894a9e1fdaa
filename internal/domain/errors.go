package domain

import "errors"

// Structural violations. These abort a call before any computation starts.
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrInvalidArity       = errors.New("invalid arity")
	ErrInvalidOperator    = errors.New("invalid operator")
	ErrInvalidSeason      = errors.New("invalid season policy")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidSeries      = errors.New("invalid series")
)

// WarningKind classifies an advisory condition.
type WarningKind string

const (
	// WarningDataQuality is raised when the series still carries quality
	// flag columns, meaning QA/QC was not applied upstream.
	WarningDataQuality WarningKind = "data_quality"

	// WarningGranularityMismatch is raised when monthly aggregation is
	// requested on periodic grab-sample data.
	WarningGranularityMismatch WarningKind = "granularity_mismatch"
)

// Warning is a non-fatal condition returned alongside a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}
