package resume

import (
	"net/http"

	"github.com/hirelens/hirelens/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("RESUME")

// Error codes - Resume and file validation
var (
	CodeResumeNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Resume not found")
	CodeInvalidFile         = ErrRegistry.Register("INVALID_FILE", errx.TypeValidation, http.StatusBadRequest, "Invalid resume file")
	CodeUnsupportedFileType = ErrRegistry.Register("UNSUPPORTED_FILE_TYPE", errx.TypeValidation, http.StatusUnsupportedMediaType, "Unsupported file type")
	CodeFileTooLarge        = ErrRegistry.Register("FILE_TOO_LARGE", errx.TypeValidation, http.StatusRequestEntityTooLarge, "File exceeds the size limit")
	CodeDangerousFile       = ErrRegistry.Register("DANGEROUS_FILE", errx.TypeValidation, http.StatusBadRequest, "File failed safety checks")
	CodeParseFailed         = ErrRegistry.Register("PARSE_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Could not extract content from file")
	CodeStructuringFailed   = ErrRegistry.Register("STRUCTURING_FAILED", errx.TypeExternal, http.StatusBadGateway, "Processing error")
	CodeLLMUnavailable      = ErrRegistry.Register("LLM_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Language model temporarily unavailable")
	CodeReviewFailed        = ErrRegistry.Register("REVIEW_FAILED", errx.TypeExternal, http.StatusBadGateway, "Review generation failed")
	CodeEmbeddingFailed     = ErrRegistry.Register("EMBEDDING_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Embedding service unavailable")
	CodeCircuitOpen         = ErrRegistry.Register("CIRCUIT_OPEN", errx.TypeUnavailable, http.StatusServiceUnavailable, "Embedding service temporarily unavailable")
	CodeStoreUnavailable    = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable")
	CodeVectorMismatch      = ErrRegistry.Register("VECTOR_MISMATCH", errx.TypeInternal, http.StatusInternalServerError, "Embedding dimension mismatch")
)

// Error codes - Job and queue operations
var (
	CodeJobNotFound       = ErrRegistry.Register("JOB_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Processing job not found")
	CodeJobNotTerminal    = ErrRegistry.Register("JOB_NOT_TERMINAL", errx.TypeConflict, http.StatusConflict, "Job is still pending or processing")
	CodeJobNotFailed      = ErrRegistry.Register("JOB_NOT_FAILED", errx.TypeBusiness, http.StatusUnprocessableEntity, "Only failed jobs can be retried")
	CodeJobUpdateFailed   = ErrRegistry.Register("JOB_UPDATE_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Failed to update job status")
	CodeEnqueueFailed     = ErrRegistry.Register("ENQUEUE_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "Failed to enqueue job")
	CodeQueueUnavailable  = ErrRegistry.Register("QUEUE_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Queue service unavailable")
	CodeInvalidJobPayload = ErrRegistry.Register("INVALID_JOB_PAYLOAD", errx.TypeInternal, http.StatusInternalServerError, "Malformed task payload")
)

// Helper functions - Resume and file validation
func ErrResumeNotFound() *errx.Error {
	return ErrRegistry.New(CodeResumeNotFound)
}

func ErrInvalidFile() *errx.Error {
	return ErrRegistry.New(CodeInvalidFile)
}

func ErrUnsupportedFileType() *errx.Error {
	return ErrRegistry.New(CodeUnsupportedFileType)
}

func ErrFileTooLarge() *errx.Error {
	return ErrRegistry.New(CodeFileTooLarge)
}

func ErrDangerousFile() *errx.Error {
	return ErrRegistry.New(CodeDangerousFile)
}

func ErrParseFailed() *errx.Error {
	return ErrRegistry.New(CodeParseFailed)
}

func ErrStructuringFailed() *errx.Error {
	return ErrRegistry.New(CodeStructuringFailed)
}

func ErrLLMUnavailable() *errx.Error {
	return ErrRegistry.New(CodeLLMUnavailable)
}

func ErrReviewFailed() *errx.Error {
	return ErrRegistry.New(CodeReviewFailed)
}

func ErrEmbeddingFailed() *errx.Error {
	return ErrRegistry.New(CodeEmbeddingFailed)
}

func ErrCircuitOpen() *errx.Error {
	return ErrRegistry.New(CodeCircuitOpen)
}

func ErrStoreUnavailable() *errx.Error {
	return ErrRegistry.New(CodeStoreUnavailable)
}

func ErrVectorMismatch() *errx.Error {
	return ErrRegistry.New(CodeVectorMismatch)
}

// Helper functions - Job and queue operations
func ErrJobNotFound() *errx.Error {
	return ErrRegistry.New(CodeJobNotFound)
}

func ErrJobNotTerminal() *errx.Error {
	return ErrRegistry.New(CodeJobNotTerminal)
}

func ErrJobNotFailed() *errx.Error {
	return ErrRegistry.New(CodeJobNotFailed)
}

func ErrJobUpdateFailed() *errx.Error {
	return ErrRegistry.New(CodeJobUpdateFailed)
}

func ErrEnqueueFailed() *errx.Error {
	return ErrRegistry.New(CodeEnqueueFailed)
}

func ErrQueueUnavailable() *errx.Error {
	return ErrRegistry.New(CodeQueueUnavailable)
}

func ErrInvalidJobPayload() *errx.Error {
	return ErrRegistry.New(CodeInvalidJobPayload)
}

// IsRetryable reports whether a processing failure should be re-enqueued
// with backoff. Only transient infrastructure errors qualify; validation,
// parse and LLM failures are final.
func IsRetryable(err error) bool {
	return errx.IsType(err, errx.TypeUnavailable)
}
