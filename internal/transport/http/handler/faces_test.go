package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/face-auth-api/internal/application/face"
	"github.com/face-auth-api/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockFaceSvc struct{ mock.Mock }

func (m *mockFaceSvc) Enroll(ctx context.Context, req face.EnrollRequest) (*face.EnrollResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*face.EnrollResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFaceSvc) Recognize(ctx context.Context, req face.RecognizeRequest) (*face.RecognitionResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*face.RecognitionResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFaceSvc) Stats(ctx context.Context) (*domain.FaceStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.FaceStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFaceSvc) UserFaces(ctx context.Context, userID string) ([]domain.FaceSummary, error) {
	args := m.Called(ctx, userID)
	if f, _ := args.Get(0).([]domain.FaceSummary); f != nil {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- Enroll tests ---

func TestEnroll_InvalidBody(t *testing.T) {
	svc := &mockFaceSvc{}
	h := NewFaceHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/enroll", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Enroll(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEnroll_ValidationFailure(t *testing.T) {
	svc := &mockFaceSvc{}
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.EnrollRequest{UserID: "u1"}) // missing poseType and image
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/enroll", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Enroll(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestEnroll_NoFaceDetected(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Enroll", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("enroll: %w", domain.ErrNoFaceDetected))
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.EnrollRequest{UserID: "u1", PoseType: "frontal", Image: "aGk="})
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/enroll", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Enroll(rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "no_face_detected", resp.ErrorKind)
	svc.AssertExpectations(t)
}

func TestEnroll_HappyPath(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Enroll", mock.Anything, mock.Anything).
		Return(&face.EnrollResult{PoseType: "frontal", EmbeddingDim: 512}, nil)
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.EnrollRequest{UserID: "u1", PoseType: "frontal", Image: "aGk="})
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/enroll", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Enroll(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp EnrollEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 512, resp.EmbeddingDim)
	assert.Contains(t, resp.Message, "frontal")
	svc.AssertExpectations(t)
}

// --- Recognize tests ---

func TestRecognize_InvalidBody(t *testing.T) {
	svc := &mockFaceSvc{}
	h := NewFaceHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/recognize", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	h.Recognize(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecognize_Match(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Recognize", mock.Anything, mock.Anything).Return(&face.RecognitionResult{
		Recognized: true,
		UserID:     "u1",
		Similarity: 0.91,
		Message:    "Recognized u1 with 0.91 similarity",
		Bearer:     "token123",
	}, nil)
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.RecognizeRequest{Image: "aGk="})
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/recognize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Recognize(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp RecognitionEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Recognized)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "token123", resp.Bearer)
	svc.AssertExpectations(t)
}

func TestRecognize_UnknownFace_StillReportsSimilarity(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Recognize", mock.Anything, mock.Anything).Return(&face.RecognitionResult{
		Recognized: false,
		Similarity: 0.42,
		Message:    "Unknown face (similarity: 0.42)",
	}, nil)
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.RecognizeRequest{Image: "aGk="})
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/recognize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Recognize(rr, r)

	// A below-threshold face is still a successful request.
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp RecognitionEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Recognized)
	assert.InDelta(t, 0.42, resp.Similarity, 1e-9)
	assert.Empty(t, resp.UserID)
	svc.AssertExpectations(t)
}

func TestRecognize_StorageFailure(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Recognize", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("recognize: %w: boom", domain.ErrStorage))
	h := NewFaceHandler(svc)
	body, _ := json.Marshal(face.RecognizeRequest{Image: "aGk="})
	r := httptest.NewRequest(http.MethodPost, "/v1/faces/recognize", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Recognize(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "storage_error", resp.ErrorKind)
	svc.AssertExpectations(t)
}

// --- Stats / UserFaces tests ---

func TestStats_HappyPath(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("Stats", mock.Anything).Return(&domain.FaceStats{
		TotalFaces:  3,
		UniqueUsers: 2,
		UsersFaces: []domain.UserFaceCount{
			{UserID: "u1", FaceCount: 2},
			{UserID: "u2", FaceCount: 1},
		},
	}, nil)
	h := NewFaceHandler(svc)
	r := httptest.NewRequest(http.MethodGet, "/v1/faces/stats", nil)
	rr := httptest.NewRecorder()
	h.Stats(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.FaceStats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.TotalFaces)
	assert.Equal(t, 2, resp.UniqueUsers)
	svc.AssertExpectations(t)
}

func TestUserFaces_HappyPath(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("UserFaces", mock.Anything, "u1").Return([]domain.FaceSummary{
		{PoseType: "left"},
		{PoseType: "frontal"},
	}, nil)
	h := NewFaceHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/faces/users/u1", nil), "id", "u1")
	rr := httptest.NewRecorder()
	h.UserFaces(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserFacesEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, 2, resp.FaceCount)
	require.Len(t, resp.Faces, 2)
	assert.Equal(t, "left", resp.Faces[0].PoseType)
	svc.AssertExpectations(t)
}

func TestUserFaces_Empty(t *testing.T) {
	svc := &mockFaceSvc{}
	svc.On("UserFaces", mock.Anything, "ghost").Return([]domain.FaceSummary{}, nil)
	h := NewFaceHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/faces/users/ghost", nil), "id", "ghost")
	rr := httptest.NewRecorder()
	h.UserFaces(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserFacesEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 0, resp.FaceCount)
	svc.AssertExpectations(t)
}
