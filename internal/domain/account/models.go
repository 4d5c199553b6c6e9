package account

import (
	"time"

	"autoplate-renamer/internal/domain/plate"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PhoneNumber      string    `json:"phoneNumber"`
	Role             Role      `json:"role"`
	InputFolderPath  *string   `json:"inputFolderPath,omitempty"`
	OutputFolderPath *string   `json:"outputFolderPath,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Identity is the caller as established by the auth middleware.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Role     Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
}

type UpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Password    *string `json:"password"`
	Role        *Role   `json:"role"`
}

type UpdateProfileRequest struct {
	Username         *string `json:"username"`
	PhoneNumber      *string `json:"phoneNumber"`
	InputFolderPath  *string `json:"inputFolderPath"`
	OutputFolderPath *string `json:"outputFolderPath"`
}

func (r UpdateProfileRequest) Empty() bool {
	return r.Username == nil && r.PhoneNumber == nil && r.InputFolderPath == nil && r.OutputFolderPath == nil
}

type ProcessingLog struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	OriginalName string `json:"originalName"`
	NewName      string `json:"newName"`
	// Timestamp is milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`
	// Details is only present for entries written by the renamer itself.
	Details *plate.AnalysisResult `json:"details,omitempty"`
}

type CreateLogRequest struct {
	Username     string `json:"username"`
	OriginalName string `json:"originalName" binding:"required"`
	NewName      string `json:"newName" binding:"required"`
}

type LogFilter struct {
	UserID *string
	From   *time.Time
	To     *time.Time
}

type LogSummary struct {
	Count           int64 `json:"count"`
	PricePerRequest int   `json:"pricePerRequest"`
	TotalCost       int64 `json:"totalCost"`
}

type SystemConfig struct {
	PricePerRequest int `json:"pricePerRequest"`
}
