package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/face-auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// EnrollEnvelope wraps a successful enrollment. The vector itself is never
// returned; its dimensionality serves as a health-check signal.
type EnrollEnvelope struct {
	Message      string `json:"message"`
	EmbeddingDim int    `json:"embedding_dim"`
}

// RecognitionEnvelope wraps recognition responses. Similarity is reported
// even when the face is rejected, for calibration and debugging.
type RecognitionEnvelope struct {
	Recognized bool    `json:"recognized"`
	UserID     string  `json:"user_id,omitempty"`
	Similarity float64 `json:"similarity"`
	Message    string  `json:"message"`
	Bearer     string  `json:"bearer,omitempty"`
}

// UserFacesEnvelope wraps the per-user face listing.
type UserFacesEnvelope struct {
	UserID    string               `json:"user_id"`
	FaceCount int                  `json:"face_count"`
	Faces     []domain.FaceSummary `json:"faces"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError translates a wrapped domain sentinel into a status code and a
// stable machine-readable kind. Errors outside the taxonomy surface as a
// generic server failure.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNoFaceDetected),
		errors.Is(err, domain.ErrEmbeddingExtraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoRequestFound), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCode), errors.Is(err, domain.ErrExpiredCode):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, MessageEnvelope{Error: err.Error(), ErrorKind: domain.ErrorKind(err)})
}
