package handler

import (
	"encoding/json"
	"net/http"

	"github.com/face-auth-api/internal/application/recovery"
	"github.com/face-auth-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// RecoveryHandler handles the password recovery flow endpoints.
type RecoveryHandler struct {
	svc recovery.Service
}

func NewRecoveryHandler(svc recovery.Service) *RecoveryHandler {
	return &RecoveryHandler{svc: svc}
}

func (h *RecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var req recovery.IssueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := h.svc.Issue(r.Context(), req.Email); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP generated and sent"})
	case "verify":
		var req recovery.VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := h.svc.Verify(r.Context(), req.Email, req.OTP); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified"})
	case "reset":
		var req recovery.ResetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := h.svc.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
