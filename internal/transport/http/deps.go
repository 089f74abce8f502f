package http

import (
	"github.com/face-auth-api/internal/infrastructure/dynamo"
	"github.com/face-auth-api/internal/infrastructure/extractor"
	jwtinfra "github.com/face-auth-api/internal/infrastructure/jwt"
	s3infra "github.com/face-auth-api/internal/infrastructure/s3"
	"github.com/face-auth-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router. S3Store and
// JWTProvider are optional; when nil, crop archiving and bearer minting are
// disabled and the corresponding services degrade gracefully.
type Deps struct {
	FaceRepo     *dynamo.FaceRepo
	RecoveryRepo *dynamo.RecoveryRepo
	UserRepo     *dynamo.UserRepo
	Extractor    extractor.Extractor
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	JWTProvider  *jwtinfra.Provider
}
