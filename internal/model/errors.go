package model

import "errors"

// Degradation categories. None of these abort the analysis of a document;
// they are attached to results so callers can match them with errors.Is.
var (
	ErrClassificationAmbiguous = errors.New("classification ambiguous")
	ErrConditionEvaluation     = errors.New("condition evaluation failed")
	ErrSpanOutOfBounds         = errors.New("span out of bounds")
	ErrGuardInconclusive       = errors.New("guard inconclusive")
)
