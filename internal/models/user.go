// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a user's moderation tier. Roles are totally ordered:
// owner > admin > moderator > member.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// roleRank maps each role to its position in the hierarchy. Higher wins.
var roleRank = map[Role]int{
	RoleMember:    0,
	RoleModerator: 1,
	RoleAdmin:     2,
	RoleOwner:     3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the role's position in the hierarchy; unknown roles rank below member.
func (r Role) Rank() int {
	if rank, ok := roleRank[r]; ok {
		return rank
	}
	return -1
}

// CanModerate reports whether the role grants content-moderation capability
// (edit/delete/pin any content, accept answers on behalf of authors).
func (r Role) CanModerate() bool {
	return r.Rank() >= roleRank[RoleModerator]
}

// CanManageUsers reports whether the role grants role-reassignment capability.
func (r Role) CanManageUsers() bool {
	return r.Rank() >= roleRank[RoleAdmin]
}

// User represents a registered forum member.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Password    string         `gorm:"not null" json:"-"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Role        Role           `gorm:"size:20;not null;default:'member'" json:"role"`
	Karma       int            `gorm:"not null;default:0" json:"karma"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Sanitize clears fields that must never leave the server.
func (u *User) Sanitize() {
	u.Password = ""
}
