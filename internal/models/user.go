package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	UsernameMaxLength = 50
	PasswordMinLength = 6
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserProfile is the public projection of a user.
type UserProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Username: u.Username,
	}
}

// BeforeSave hook for validation
func (u *User) BeforeSave(tx *gorm.DB) error {
	username := strings.TrimSpace(u.Username)
	if username == "" || utf8.RuneCountInString(username) > UsernameMaxLength {
		return gorm.ErrInvalidData
	}

	if u.PasswordHash == "" {
		return gorm.ErrInvalidData
	}

	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
