package service

import (
	"context"
	"time"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// --- DTOs ---

type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse exposes the user without sensitive fields.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	jwtSecret []byte
}

func NewUserService(repo repository.UserRepository, jwtSecret []byte) UserService {
	return &userService{repo: repo, jwtSecret: jwtSecret}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}

	user := &model.User{
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.Internal(err, "failed to create user")
	}

	return mapUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Validation("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Validation("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// stored token.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil || time.Now().After(stored.ExpiresAt) {
		return nil, apperror.Validation("invalid or expired refresh token")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.Validation("invalid or expired refresh token")
	}

	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperror.Internal(err, "failed to rotate refresh token")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user not found")
	}

	return mapUserResponse(user), nil
}

// --- Helpers ---

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperror.Internal(err, "failed to sign token")
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, apperror.Internal(err, "failed to store refresh token")
	}

	return &TokenResponse{AccessToken: access, RefreshToken: refresh.Token}, nil
}

func mapUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
