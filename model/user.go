package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Username      string     `json:"username" gorm:"uniqueIndex;not null;size:30"`
	Password      string     `json:"-" gorm:"not null"`
	Role          string     `json:"role" gorm:"default:user;not null;size:20"`
	EmailVerified bool       `json:"email_verified" gorm:"default:false;not null"`
	IsActive      bool       `json:"is_active" gorm:"default:true;not null"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP   string     `json:"last_login_ip,omitempty" gorm:"size:45"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}
