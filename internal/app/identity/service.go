package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/daybook/server/internal/apperr"
	"github.com/daybook/server/internal/contracts"
	"github.com/daybook/server/internal/platform/auth"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/mongodb"
	"github.com/daybook/server/internal/platform/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the session lifetime for both the token and the cookie.
const DefaultTokenTTL = 10 * 24 * time.Hour

type SignupRequest struct {
	Username string `json:"username" validate:"min=3,max=20"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PublicUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	NewUser *PublicUser `json:"newUser,omitempty"`
	User    *PublicUser `json:"user,omitempty"`
	Token   string      `json:"token"`
}

type Recorder interface {
	Record(ctx context.Context, ownerID, entity, entityID, action string)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, string, string) {}

type Service struct {
	Repo      Repository
	AuthToken auth.Manager
	Events    Recorder
	Validate  *validate.Validator
	Log       logrus.FieldLogger
	HashCost  int
	NewID     func() string
	Now       func() time.Time
}

func NewService(repo Repository, tokenManager auth.Manager) *Service {
	return &Service{
		Repo:      repo,
		AuthToken: tokenManager,
		Events:    nopRecorder{},
		Validate:  validate.New(),
		Log:       logging.Discard(),
		HashCost:  bcrypt.DefaultCost,
		NewID:     mongodb.NewID,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func NewTokenManager(secret string, ttl time.Duration) auth.Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return auth.NewManager(secret, ttl)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return AuthResponse{}, apperr.Validation("All fields are required")
	}
	if err := s.Validate.Struct(req); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.Repo.FindUserByEmail(ctx, req.Email); err == nil {
		return AuthResponse{}, apperr.Conflict("User already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return AuthResponse{}, s.internal(err, "lookup user failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.HashCost)
	if err != nil {
		return AuthResponse{}, s.internal(err, "hash password failed")
	}
	u := User{
		ID:           s.NewID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Preferences:  DefaultPreferences(),
		CreatedAt:    s.Now(),
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return AuthResponse{}, apperr.Conflict("User already registered")
		}
		return AuthResponse{}, s.internal(err, "create user failed")
	}

	token, err := s.AuthToken.Sign(u.ID)
	if err != nil {
		return AuthResponse{}, s.internal(err, "sign token failed")
	}
	s.Events.Record(ctx, u.ID, contracts.EntityUser, u.ID, contracts.ActionSignedUp)
	return AuthResponse{Message: "User registered successfully", NewUser: public(u), Token: token}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return AuthResponse{}, apperr.Validation("All fields are required")
	}

	u, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResponse{}, apperr.Unauthorized("Invalid credentials")
		}
		return AuthResponse{}, s.internal(err, "lookup user failed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return AuthResponse{}, apperr.Unauthorized("Invalid credentials")
	}

	token, err := s.AuthToken.Sign(u.ID)
	if err != nil {
		return AuthResponse{}, s.internal(err, "sign token failed")
	}
	return AuthResponse{Message: "Login successful", User: public(u), Token: token}, nil
}

// Authenticate resolves a bearer token to the owner id it was issued for.
func (s *Service) Authenticate(token string) (string, error) {
	if token == "" {
		return "", apperr.Unauthorized("No token provided. Please login.")
	}
	claims, err := s.AuthToken.Parse(token)
	if err != nil {
		return "", apperr.Unauthorized("Invalid or expired token. Please login again.")
	}
	return claims.UserID, nil
}

func public(u User) *PublicUser {
	return &PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Service) internal(err error, msg string) error {
	s.Log.WithError(err).Error(msg)
	return apperr.Internal("Internal server error", err)
}
