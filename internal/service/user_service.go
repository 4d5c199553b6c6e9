package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/repository"
)

type UserService struct {
	users           UserStore
	defaultPassword string
	log             zerolog.Logger
}

func NewUserService(users UserStore, defaultPassword string, log zerolog.Logger) *UserService {
	return &UserService{users: users, defaultPassword: defaultPassword, log: log}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrConflict
	default:
		return err
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) List(ctx context.Context) ([]account.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	// folder preferences are private to each user
	for i := range users {
		users[i].InputFolderPath = nil
		users[i].OutputFolderPath = nil
	}
	return users, nil
}

// Create adds a user. A missing password becomes the default password and a
// missing role becomes USER.
func (s *UserService) Create(ctx context.Context, req account.CreateUserRequest) (*account.User, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	role := req.Role
	if role == "" {
		role = account.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	password := req.Password
	if password == "" {
		password = s.defaultPassword
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &account.User{
		Username:    username,
		Email:       email,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s", ErrConflict, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user created")
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, req account.UpdateUserRequest) (*account.User, error) {
	fields := map[string]any{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
		}
		fields["username"] = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		fields["email"] = email
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = *req.PhoneNumber
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *req.Role)
		}
		fields["role"] = string(*req.Role)
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates provided", ErrInvalidInput)
	}

	if req.Role != nil && *req.Role != account.RoleAdmin {
		if err := s.guardLastAdmin(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.Get(ctx, id)
}

// guardLastAdmin fails when id is the only remaining ADMIN.
func (s *UserService) guardLastAdmin(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if user.Role != account.RoleAdmin {
		return nil
	}
	admins, err := s.users.CountByRole(ctx, account.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.guardLastAdmin(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*account.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, req account.UpdateProfileRequest) (*account.User, error) {
	if req.Empty() {
		return nil, fmt.Errorf("%w: no updates provided", ErrInvalidInput)
	}
	fields := map[string]any{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrInvalidInput)
		}
		fields["username"] = username
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = *req.PhoneNumber
	}
	if req.InputFolderPath != nil {
		fields["input_folder_path"] = *req.InputFolderPath
	}
	if req.OutputFolderPath != nil {
		fields["output_folder_path"] = *req.OutputFolderPath
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.Get(ctx, id)
}
