package rag

import (
	"net/http"

	"github.com/hirelens/hirelens/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("RAG")

// Error codes
var (
	CodeInvalidRequest    = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid analysis request")
	CodeGenerationFailed  = ErrRegistry.Register("GENERATION_FAILED", errx.TypeExternal, http.StatusBadGateway, "Processing error")
	CodeGenerationInvalid = ErrRegistry.Register("GENERATION_INVALID", errx.TypeExternal, http.StatusBadGateway, "Model produced an unusable analysis")
	CodeLLMUnavailable    = ErrRegistry.Register("LLM_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Language model temporarily unavailable")
)

// Common error constructors

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeGenerationFailed)
}

func ErrGenerationInvalid() *errx.Error {
	return ErrRegistry.New(CodeGenerationInvalid)
}

func ErrLLMUnavailable() *errx.Error {
	return ErrRegistry.New(CodeLLMUnavailable)
}
