package domain

import "time"

// FaceRecord is one stored identity vector.
// PK: user_id, SK: record_id (ULID — sorts by insertion time).
// Embedding is the unit-normalized vector packed as little-endian float32s.
// Records are immutable once written; there is no update or delete path.
type FaceRecord struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	RecordID  string    `json:"record_id" dynamodbav:"record_id"`
	PoseType  string    `json:"pose_type" dynamodbav:"pose_type"`
	Embedding []byte    `json:"-" dynamodbav:"embedding"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// FaceStats summarizes the registered population.
type FaceStats struct {
	TotalFaces  int             `json:"total_faces"`
	UniqueUsers int             `json:"unique_users"`
	UsersFaces  []UserFaceCount `json:"users_faces"`
	Recent      []FaceSummary   `json:"recent_registrations"`
}

type UserFaceCount struct {
	UserID    string `json:"user_id"`
	FaceCount int    `json:"face_count"`
}

// FaceSummary is a FaceRecord without its vector, for listings.
type FaceSummary struct {
	UserID    string    `json:"user_id,omitempty"`
	PoseType  string    `json:"pose_type"`
	CreatedAt time.Time `json:"timestamp"`
}
