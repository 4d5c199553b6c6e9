package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"autoplate-renamer/internal/domain/account"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type User struct {
	ID               string `gorm:"primaryKey;type:uuid"`
	Username         string `gorm:"not null"`
	Email            string `gorm:"not null;uniqueIndex"`
	PhoneNumber      *string
	PasswordHash     string `gorm:"not null"`
	Role             string `gorm:"not null"`
	InputFolderPath  *string
	OutputFolderPath *string
	CreatedAt        time.Time
}

func (u User) toDomain() account.User {
	out := account.User{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Role:             account.Role(u.Role),
		InputFolderPath:  u.InputFolderPath,
		OutputFolderPath: u.OutputFolderPath,
		CreatedAt:        u.CreatedAt,
	}
	if u.PhoneNumber != nil {
		out.PhoneNumber = *u.PhoneNumber
	}
	return out
}

// FindByEmail returns the user and their password hash.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*account.User, string, error) {
	var row User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	u := row.toDomain()
	return &u, row.PasswordHash, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*account.User, error) {
	var row User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]account.User, error) {
	var rows []User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]account.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

// Create inserts u and fills in its ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, u *account.User, passwordHash string) error {
	row := User{
		ID:           uuid.NewString(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: passwordHash,
		Role:         string(u.Role),
		CreatedAt:    time.Now(),
	}
	if u.PhoneNumber != "" {
		row.PhoneNumber = &u.PhoneNumber
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

// Update applies column -> value changes to one user.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role account.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("role = ?", string(role)).Count(&n).Error
	return n, err
}
