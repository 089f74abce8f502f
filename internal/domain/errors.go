package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes and a stable
// machine-readable error kind without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")

	// Face pipeline.
	ErrValidation          = errors.New("validation failed")
	ErrNoFaceDetected      = errors.New("no face detected")
	ErrEmbeddingExtraction = errors.New("embedding extraction failed")

	// OTP recovery flow.
	ErrNoRequestFound = errors.New("no recovery request found")
	ErrInvalidCode    = errors.New("invalid code")
	ErrExpiredCode    = errors.New("code expired")

	// Durable store read/write failure. Surfaced as a generic server error;
	// an operation either fully commits or is reported as fully failed.
	ErrStorage = errors.New("storage failure")
)

// ErrorKind maps a wrapped sentinel to its machine-readable kind string,
// or "internal" when the error matches none of them.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNoFaceDetected):
		return "no_face_detected"
	case errors.Is(err, ErrEmbeddingExtraction):
		return "embedding_extraction_error"
	case errors.Is(err, ErrNoRequestFound):
		return "no_request_found"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrExpiredCode):
		return "expired_code"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "internal"
	}
}
