package recovery

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/face-auth-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// CodeTTL bounds how long an issued code stays verifiable.
const CodeTTL = 300 * time.Second

type IssueRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// RecoveryRepository is the slice of the recovery store the service needs.
type RecoveryRepository interface {
	Put(ctx context.Context, req *domain.RecoveryRequest) error
	Get(ctx context.Context, email string) (*domain.RecoveryRequest, error)
	DeleteIfCodeMatches(ctx context.Context, email, code string) error
}

// UserRepository is the slice of the user store the service needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Mailer dispatches recovery codes. Delivery is best-effort.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Service interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type ServiceDeps struct {
	RecoveryRepo RecoveryRepository
	UserRepo     UserRepository
	Mailer       Mailer
}

type service struct {
	recoveries RecoveryRepository
	users      UserRepository
	mailer     Mailer
}

func NewService(deps ServiceDeps) Service {
	return &service{
		recoveries: deps.RecoveryRepo,
		users:      deps.UserRepo,
		mailer:     deps.Mailer,
	}
}

// Issue generates a fresh 6-digit code for email, replacing any live request
// for the same address, and dispatches it. A failed send is logged but does
// not fail issuance — the stored code stays valid.
func (s *service) Issue(ctx context.Context, email string) error {
	code, err := newCode()
	if err != nil {
		return err
	}
	req := &domain.RecoveryRequest{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(CodeTTL).Unix(),
	}
	if err := s.recoveries.Put(ctx, req); err != nil {
		return fmt.Errorf("store recovery request: %w: %w", domain.ErrStorage, err)
	}

	if err := s.mailer.SendEmail(email, "Your OTP Code", "Your OTP is "+code); err != nil {
		slog.Warn("could not send recovery code", "email", email, "err", err)
	}
	return nil
}

// Verify checks code against the live request for email. On success the
// request is deleted, enforcing single use. Expiry is evaluated lazily here;
// an expired row is left in place.
func (s *service) Verify(ctx context.Context, email, code string) error {
	req, err := s.recoveries.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no OTP request for %s: %w", email, domain.ErrNoRequestFound)
		}
		return fmt.Errorf("read recovery request: %w: %w", domain.ErrStorage, err)
	}
	// Exact string comparison, matching the issued code byte for byte.
	// Not constant-time; see the hardening notes in DESIGN.md.
	if req.Code != code {
		return fmt.Errorf("OTP mismatch: %w", domain.ErrInvalidCode)
	}
	if time.Now().Unix() > req.ExpiresAt {
		return fmt.Errorf("OTP past its expiry: %w", domain.ErrExpiredCode)
	}
	if err := s.recoveries.DeleteIfCodeMatches(ctx, email, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A concurrent reissue replaced the code between Get and here.
			return fmt.Errorf("request superseded: %w", domain.ErrNoRequestFound)
		}
		return fmt.Errorf("consume recovery request: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

// ResetPassword replaces the password of the account registered under email.
// Callers run it after a successful Verify.
func (s *service) ResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account for %s: %w", email, domain.ErrNotFound)
		}
		return fmt.Errorf("read user: %w: %w", domain.ErrStorage, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

// newCode draws a uniform 6-digit code; leading zeros are kept.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
