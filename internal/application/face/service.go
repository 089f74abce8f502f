package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/face-auth-api/internal/domain"
	"github.com/face-auth-api/internal/infrastructure/extractor"
	"github.com/face-auth-api/internal/pkg/id"
	"github.com/face-auth-api/internal/pkg/vector"
)

// RecognitionThreshold is the fixed accept/reject cutoff. A match must score
// strictly above it; a similarity of exactly 0.65 is rejected.
const RecognitionThreshold = 0.65

type EnrollRequest struct {
	UserID   string `json:"userId" validate:"required"`
	PoseType string `json:"poseType" validate:"required"`
	Image    string `json:"image" validate:"required"`
}

type RecognizeRequest struct {
	Image string `json:"image" validate:"required"`
}

type EnrollResult struct {
	PoseType     string
	EmbeddingDim int
}

type RecognitionResult struct {
	Recognized bool
	UserID     string
	Similarity float64
	Message    string
	Bearer     string
}

// FaceRepository is the slice of the embedding store the service needs.
type FaceRepository interface {
	Put(ctx context.Context, rec *domain.FaceRecord) error
	ScanAll(ctx context.Context) ([]domain.FaceRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.FaceRecord, error)
}

// CropArchiver persists the selected enrollment crop for later re-embedding.
type CropArchiver interface {
	ArchiveCrop(ctx context.Context, userID, recordID string, crop []byte) (string, error)
}

// TokenSigner mints a bearer token for a recognized user.
type TokenSigner interface {
	Sign(userID string) (string, error)
}

type Service interface {
	Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error)
	Recognize(ctx context.Context, req RecognizeRequest) (*RecognitionResult, error)
	Stats(ctx context.Context) (*domain.FaceStats, error)
	UserFaces(ctx context.Context, userID string) ([]domain.FaceSummary, error)
}

// ServiceDeps wires the service. Archiver and Signer are optional.
type ServiceDeps struct {
	FaceRepo  FaceRepository
	Extractor extractor.Extractor
	Archiver  CropArchiver
	Signer    TokenSigner
}

type service struct {
	faces     FaceRepository
	extractor extractor.Extractor
	archiver  CropArchiver
	signer    TokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		faces:     deps.FaceRepo,
		extractor: deps.Extractor,
		archiver:  deps.Archiver,
		signer:    deps.Signer,
	}
}

func (s *service) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	if req.UserID == "" || req.PoseType == "" || req.Image == "" {
		return nil, fmt.Errorf("userId, poseType and image are required: %w", domain.ErrValidation)
	}
	img, err := decodeImagePayload(req.Image)
	if err != nil {
		return nil, err
	}

	crop, emb, err := s.extractQueryVector(ctx, img)
	if err != nil {
		return nil, err
	}

	rec := &domain.FaceRecord{
		UserID:    req.UserID,
		RecordID:  id.New(),
		PoseType:  req.PoseType,
		Embedding: vector.Encode(emb),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.faces.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store face record: %w: %w", domain.ErrStorage, err)
	}

	if s.archiver != nil {
		if _, err := s.archiver.ArchiveCrop(ctx, rec.UserID, rec.RecordID, crop); err != nil {
			slog.Warn("could not archive enrollment crop", "user_id", rec.UserID, "record_id", rec.RecordID, "err", err)
		}
	}

	return &EnrollResult{PoseType: req.PoseType, EmbeddingDim: len(emb)}, nil
}

func (s *service) Recognize(ctx context.Context, req RecognizeRequest) (*RecognitionResult, error) {
	if req.Image == "" {
		return nil, fmt.Errorf("image is required: %w", domain.ErrValidation)
	}
	img, err := decodeImagePayload(req.Image)
	if err != nil {
		return nil, err
	}

	_, query, err := s.extractQueryVector(ctx, img)
	if err != nil {
		return nil, err
	}

	records, err := s.faces.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read embedding store: %w: %w", domain.ErrStorage, err)
	}
	if len(records) == 0 {
		return &RecognitionResult{Recognized: false, Message: "no registered identities"}, nil
	}

	// Linear scan. Strict > means the earliest record wins exact ties, which
	// keeps results reproducible across runs.
	best := 0.0
	bestUser := ""
	for _, rec := range records {
		stored, err := vector.Decode(rec.Embedding, len(query))
		if err != nil {
			slog.Warn("skipping unreadable face record", "user_id", rec.UserID, "record_id", rec.RecordID, "err", err)
			continue
		}
		if sim := vector.Similarity(query, stored); sim > best {
			best = sim
			bestUser = rec.UserID
		}
	}

	if best > RecognitionThreshold {
		res := &RecognitionResult{
			Recognized: true,
			UserID:     bestUser,
			Similarity: best,
			Message:    fmt.Sprintf("Recognized %s with %.2f similarity", bestUser, best),
		}
		if s.signer != nil {
			bearer, err := s.signer.Sign(bestUser)
			if err != nil {
				slog.Warn("could not sign bearer for recognized user", "user_id", bestUser, "err", err)
			} else {
				res.Bearer = bearer
			}
		}
		return res, nil
	}
	return &RecognitionResult{
		Recognized: false,
		Similarity: best,
		Message:    fmt.Sprintf("Unknown face (similarity: %.2f)", best),
	}, nil
}

func (s *service) Stats(ctx context.Context) (*domain.FaceStats, error) {
	records, err := s.faces.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read embedding store: %w: %w", domain.ErrStorage, err)
	}

	counts := map[string]int{}
	for _, rec := range records {
		counts[rec.UserID]++
	}
	stats := &domain.FaceStats{
		TotalFaces:  len(records),
		UniqueUsers: len(counts),
	}
	for userID, n := range counts {
		stats.UsersFaces = append(stats.UsersFaces, domain.UserFaceCount{UserID: userID, FaceCount: n})
	}
	sort.Slice(stats.UsersFaces, func(i, j int) bool {
		return stats.UsersFaces[i].UserID < stats.UsersFaces[j].UserID
	})

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	for i, rec := range records {
		if i == 10 {
			break
		}
		stats.Recent = append(stats.Recent, domain.FaceSummary{
			UserID:    rec.UserID,
			PoseType:  rec.PoseType,
			CreatedAt: rec.CreatedAt,
		})
	}
	return stats, nil
}

func (s *service) UserFaces(ctx context.Context, userID string) ([]domain.FaceSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	records, err := s.faces.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read embedding store: %w: %w", domain.ErrStorage, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	summaries := make([]domain.FaceSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, domain.FaceSummary{PoseType: rec.PoseType, CreatedAt: rec.CreatedAt})
	}
	return summaries, nil
}

// extractQueryVector runs detection, candidate selection and normalization
// on one image and returns the chosen crop with its unit vector.
func (s *service) extractQueryVector(ctx context.Context, img []byte) ([]byte, []float32, error) {
	faces, err := s.extractor.DetectFaces(ctx, img)
	if err != nil {
		return nil, nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(faces) == 0 {
		return nil, nil, fmt.Errorf("no face in image: %w", domain.ErrNoFaceDetected)
	}

	// Highest confidence wins; strict > keeps the first-detected face on
	// exact ties, so selection is deterministic.
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}

	emb, err := s.extractor.Embed(ctx, best.Crop)
	if err != nil {
		return nil, nil, fmt.Errorf("embed face: %w", err)
	}
	unit, err := vector.Normalize(emb)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize embedding: %w", domain.ErrEmbeddingExtraction)
	}
	return best.Crop, unit, nil
}

// decodeImagePayload accepts a base64 image, with or without a
// data:image/...;base64, prefix, and verifies it decodes as a raster image.
func decodeImagePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:image") {
		if idx := strings.Index(payload, "base64,"); idx >= 0 {
			payload = payload[idx+len("base64,"):]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", domain.ErrValidation)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("payload is not a decodable image: %w", domain.ErrValidation)
	}
	return raw, nil
}
