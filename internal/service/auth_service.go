package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/repository"
)

type AuthService struct {
	users      UserStore
	secret     []byte
	expiration time.Duration
	log        zerolog.Logger
}

func NewAuthService(users UserStore, cfg config.JWTConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		secret:     []byte(cfg.Secret),
		expiration: cfg.Expiration,
		log:        log,
	}
}

type tokenClaims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *AuthService) Login(ctx context.Context, req account.LoginRequest) (*account.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	user, hash, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.log.Warn().Str("email", email).Msg("login rejected")
		return nil, ErrUnauthorized
	}

	token, err := s.IssueToken(*user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return &account.LoginResponse{Token: token, User: *user}, nil
}

// IssueToken signs an HS256 token for u valid for the configured expiration.
func (s *AuthService) IssueToken(u account.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		ID:       u.ID,
		Email:    u.Email,
		Role:     string(u.Role),
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ParseToken(raw string) (account.Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return account.Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.ID == "" || !account.Role(claims.Role).Valid() {
		return account.Identity{}, fmt.Errorf("%w: malformed claims", ErrUnauthorized)
	}

	username := claims.Username
	if username == "" {
		username = claims.Email
	}
	return account.Identity{
		UserID:   claims.ID,
		Email:    claims.Email,
		Username: username,
		Role:     account.Role(claims.Role),
	}, nil
}
