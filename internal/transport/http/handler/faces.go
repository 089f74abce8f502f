package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/face-auth-api/internal/application/face"
	"github.com/face-auth-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// FaceHandler handles enrollment, recognition and face listing endpoints.
type FaceHandler struct {
	svc face.Service
}

func NewFaceHandler(svc face.Service) *FaceHandler { return &FaceHandler{svc: svc} }

func (h *FaceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req face.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Enroll(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EnrollEnvelope{
		Message:      fmt.Sprintf("Face registered successfully for %s pose", res.PoseType),
		EmbeddingDim: res.EmbeddingDim,
	})
}

func (h *FaceHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req face.RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Recognize(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecognitionEnvelope{
		Recognized: res.Recognized,
		UserID:     res.UserID,
		Similarity: res.Similarity,
		Message:    res.Message,
		Bearer:     res.Bearer,
	})
}

func (h *FaceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *FaceHandler) UserFaces(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	faces, err := h.svc.UserFaces(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserFacesEnvelope{
		UserID:    userID,
		FaceCount: len(faces),
		Faces:     faces,
	})
}
