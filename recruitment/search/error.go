package search

import (
	"net/http"

	"github.com/hirelens/hirelens/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("SEARCH")

// Error codes
var (
	CodeInvalidQuery     = ErrRegistry.Register("INVALID_QUERY", errx.TypeValidation, http.StatusBadRequest, "Invalid search request")
	CodeEmptyFilters     = ErrRegistry.Register("EMPTY_FILTERS", errx.TypeValidation, http.StatusBadRequest, "At least one filter is required")
	CodeInvalidWeights   = ErrRegistry.Register("INVALID_WEIGHTS", errx.TypeValidation, http.StatusBadRequest, "Weights must be between 0 and 1")
	CodeGraphUnavailable = ErrRegistry.Register("GRAPH_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable")
)

// Common error constructors

func ErrInvalidQuery() *errx.Error {
	return ErrRegistry.New(CodeInvalidQuery)
}

func ErrEmptyFilters() *errx.Error {
	return ErrRegistry.New(CodeEmptyFilters)
}

func ErrInvalidWeights() *errx.Error {
	return ErrRegistry.New(CodeInvalidWeights)
}
