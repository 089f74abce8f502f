package domain

// RecoveryRequest is a single-use password recovery code.
// PK: email — at most one live request per address; issuing a new code
// replaces any prior one. ExpiresAt is a Unix timestamp, also used as the
// DynamoDB TTL attribute. Expiry is checked lazily at verify time; expired
// rows are left in place and treated as invalid.
type RecoveryRequest struct {
	Email     string `json:"email" dynamodbav:"email"`
	Code      string `json:"-" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
