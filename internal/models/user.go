package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a contributor's privilege level
type Role string

const (
	RoleReporter   Role = "reporter"
	RoleReviewer   Role = "reviewer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleReporter, RoleReviewer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r is admin or super_admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanReview reports whether r may publish, reject or retract
func (r Role) CanReview() bool {
	return r == RoleReviewer || r.IsAdmin()
}

// Actor is the authenticated caller as carried by a session token
type Actor struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// User is a contributor account held by the user store
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Disabled     bool               `bson:"disabled" json:"disabled"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Actor projects the account onto the token identity
func (u *User) Actor() *Actor {
	return &Actor{UID: u.ID.Hex(), Username: u.Username, Role: u.Role}
}
