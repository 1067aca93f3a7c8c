package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the slice of user storage the auth service needs.
type UserRepository interface {
	GetByEmail(email string) (*User, error)
	GetByID(userID int64) (*User, error)
	GetByEmailOrUsername(email, username string) (*User, error)
	Create(user *User) error
}

// Service implements registration, login and the refresh-token lifecycle.
type Service struct {
	userRepo       UserRepository
	tokenStore     RefreshTokenStore
	tokenGenerator TokenGenerator
	refreshTTL     time.Duration
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenStore RefreshTokenStore, tokenGen TokenGenerator, refreshTTL time.Duration, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenStore:     tokenStore,
		tokenGenerator: tokenGen,
		refreshTTL:     refreshTTL,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Register creates a new account and issues its first token pair.
func (s *Service) Register(dto RegisterDTO, ip string) (*AuthResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmailOrUsername(dto.Email, dto.Username); err == nil && existing != nil {
		if existing.Email == dto.Email {
			return nil, ErrEmailTaken
		}
		return nil, ErrUsernameTaken
	}

	role := RoleReader
	if dto.Role != "" {
		parsed, ok := ParseRole(dto.Role)
		if !ok {
			return nil, ValidationError{Msg: "invalid role"}
		}
		role = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	tokens, err := s.issueTokens(user, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(dto LoginDTO, ip string) (*AuthResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(dto.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issueTokens(user, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Rotate implements one-time-use refresh rotation. The presented token is
// verified, matched against its stored hash, revoked, linked to its
// successor, and a brand-new pair is issued. Presenting the same token a
// second time fails: replay is how stolen refresh tokens surface.
func (s *Service) Rotate(presentedToken, ip string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(presentedToken)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	hash := HashToken(presentedToken)
	stored, err := s.tokenStore.GetByHash(hash, claims.UserID)
	if err != nil || stored == nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if err := stored.Usable(); err != nil {
		s.logger.Warn("refresh token rejected", "user_id", claims.UserID, "reason", err)
		return AuthTokens{}, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !user.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	newRefresh, err := s.tokenGenerator.GenerateRefreshToken(user)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate refresh token: %w", err)
	}

	// Revoke-if-not-revoked: the conditional write makes the second of two
	// concurrent rotations lose instead of both succeeding.
	revoked, err := s.tokenStore.Revoke(hash, ip, HashToken(newRefresh))
	if err != nil {
		return AuthTokens{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !revoked {
		s.logger.Warn("refresh token replay detected", "user_id", claims.UserID)
		return AuthTokens{}, ErrInvalidToken
	}

	if err := s.persistRefreshToken(newRefresh, user.ID, ip); err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("refresh token rotated", "user_id", user.ID)
	return AuthTokens{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Revoke marks the presented refresh token revoked. Idempotent: revoking an
// already-revoked or unknown token succeeds silently.
func (s *Service) Revoke(presentedToken, ip string) error {
	if presentedToken == "" {
		return nil
	}
	_, err := s.tokenStore.Revoke(HashToken(presentedToken), ip, "")
	if err != nil {
		s.logger.Error("failed to revoke refresh token", "error", err)
		return err
	}
	return nil
}

// ValidateAccessToken checks signature, issuer, audience and expiry. Purely
// cryptographic: no storage lookup.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetUserByID loads the full account record, for the profile endpoint.
func (s *Service) GetUserByID(userID int64) (*User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *Service) issueTokens(user *User, ip string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(user)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.persistRefreshToken(refreshToken, user.ID, ip); err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) persistRefreshToken(token string, userID int64, ip string) error {
	record := &RefreshToken{
		TokenHash:   HashToken(token),
		UserID:      userID,
		ExpiresAt:   time.Now().Add(s.refreshTTL),
		CreatedByIP: ip,
		CreatedAt:   time.Now(),
	}
	if err := s.tokenStore.Create(record); err != nil {
		s.logger.Error("failed to persist refresh token", "error", err, "user_id", userID)
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// JWTTokenGenerator signs and verifies HS256 token pairs with distinct
// secrets for the two token kinds.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
	Audience           string
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer, audience string) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Issuer:             issuer,
		Audience:           audience,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(u *User) (string, error) {
	return j.sign(u, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(u *User) (string, error) {
	return j.sign(u, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(u *User, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   u.ID,
		Role:     string(u.Role),
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("%d", u.ID),
			Issuer:    j.Issuer,
			Audience:  jwt.ClaimStrings{j.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithAudience(j.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
