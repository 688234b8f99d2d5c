package model

import "time"

// User roles.
const (
	RoleAdmin    = "admin"
	RoleSalesRep = "salesrep"
	RoleGuest    = "guest"
)

// User stores panel users with role-based access.
type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null;default:'guest'"`
	CreatedAt    time.Time
	LastLogin    *time.Time
	// Password reset flow: token is a one-shot uuid with an absolute expiry.
	ResetToken       *string `gorm:"index"`
	ResetTokenExpiry *time.Time
}
