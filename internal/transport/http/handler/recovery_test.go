package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/face-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockRecoverySvc struct{ mock.Mock }

func (m *mockRecoverySvc) Issue(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockRecoverySvc) Verify(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockRecoverySvc) ResetPassword(ctx context.Context, email, newPassword string) error {
	return m.Called(ctx, email, newPassword).Error(0)
}

func recoveryReq(action string, body []byte) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/password-recovery/"+action, bytes.NewReader(body))
	return withChiParam(r, "action", action)
}

// --- request tests ---

func TestRecoveryRequest_InvalidEmail(t *testing.T) {
	svc := &mockRecoverySvc{}
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "not-an-email"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("request", body))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRecoveryRequest_HappyPath(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("Issue", mock.Anything, "alice@example.com").Return(nil)
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("request", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- verify tests ---

func TestRecoveryVerify_NoRequest(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("Verify", mock.Anything, "alice@example.com", "123456").
		Return(fmt.Errorf("verify: %w", domain.ErrNoRequestFound))
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "otp": "123456"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("verify", body))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "no_request_found", resp.ErrorKind)
	svc.AssertExpectations(t)
}

func TestRecoveryVerify_WrongCode(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("Verify", mock.Anything, "alice@example.com", "000000").
		Return(fmt.Errorf("verify: %w", domain.ErrInvalidCode))
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "otp": "000000"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("verify", body))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "invalid_code", resp.ErrorKind)
	svc.AssertExpectations(t)
}

func TestRecoveryVerify_ExpiredCode(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("Verify", mock.Anything, "alice@example.com", "123456").
		Return(fmt.Errorf("verify: %w", domain.ErrExpiredCode))
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "otp": "123456"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("verify", body))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "expired_code", resp.ErrorKind)
	svc.AssertExpectations(t)
}

func TestRecoveryVerify_MalformedOTP(t *testing.T) {
	svc := &mockRecoverySvc{}
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "otp": "12ab56"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("verify", body))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRecoveryVerify_HappyPath(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("Verify", mock.Anything, "alice@example.com", "123456").Return(nil)
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "otp": "123456"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("verify", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- reset tests ---

func TestRecoveryReset_ShortPassword(t *testing.T) {
	svc := &mockRecoverySvc{}
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "new_password": "short"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("reset", body))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRecoveryReset_UnknownEmail(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("ResetPassword", mock.Anything, "ghost@example.com", "newpass123").
		Return(fmt.Errorf("reset password: %w", domain.ErrNotFound))
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "ghost@example.com", "new_password": "newpass123"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("reset", body))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertExpectations(t)
}

func TestRecoveryReset_HappyPath(t *testing.T) {
	svc := &mockRecoverySvc{}
	svc.On("ResetPassword", mock.Anything, "alice@example.com", "newpass123").Return(nil)
	h := NewRecoveryHandler(svc)
	body, _ := json.Marshal(map[string]string{"email": "alice@example.com", "new_password": "newpass123"})
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("reset", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRecovery_UnknownAction(t *testing.T) {
	svc := &mockRecoverySvc{}
	h := NewRecoveryHandler(svc)
	rr := httptest.NewRecorder()
	h.Action(rr, recoveryReq("frobnicate", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
