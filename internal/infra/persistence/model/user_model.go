// Package model defines the database representations of domain entities.
package model

import (
	"time"

	"github.com/google/uuid"

	"courtside/internal/domain/entity"
)

// User is the GORM model backing the users table.
type User struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Username            string            `gorm:"column:username;uniqueIndex"`
	Email               string            `gorm:"column:email;uniqueIndex"`
	Role                string            `gorm:"column:role"`
	PasswordHash        *string           `gorm:"column:password_hash"`
	RefreshToken        *string           `gorm:"column:refresh_token"`
	ResetToken          *string           `gorm:"column:reset_token;index"`
	ResetTokenExpiresAt *time.Time        `gorm:"column:reset_token_expires_at"`
	Profile             map[string]string `gorm:"column:profile;type:jsonb;serializer:json"`
	CreatedAt           time.Time         `gorm:"column:created_at"`
	UpdatedAt           time.Time         `gorm:"column:updated_at"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to the domain entity.
func (m *User) ToDomain() *entity.User {
	return &entity.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		Role:                entity.Role(m.Role),
		PasswordHash:        m.PasswordHash,
		RefreshToken:        m.RefreshToken,
		ResetToken:          m.ResetToken,
		ResetTokenExpiresAt: m.ResetTokenExpiresAt,
		Profile:             m.Profile,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// FromDomain converts the domain entity to the persistence model.
func FromDomain(user *entity.User) *User {
	return &User{
		ID:                  user.ID,
		Username:            user.Username,
		Email:               user.Email,
		Role:                user.Role.String(),
		PasswordHash:        user.PasswordHash,
		RefreshToken:        user.RefreshToken,
		ResetToken:          user.ResetToken,
		ResetTokenExpiresAt: user.ResetTokenExpiresAt,
		Profile:             user.Profile,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}
