package models

import (
	"slices"
	"time"
)

// Role is a capability granted to an admin-area user.
type Role string

// Role constants
const (
	RoleModerator      Role = "MODERATOR"
	RoleCatalogManager Role = "CATALOG_MANAGER"
	RoleUserAdmin      Role = "USER_ADMIN"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleModerator, RoleCatalogManager, RoleUserAdmin}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return slices.Contains(AllRoles, r)
}

// User is an admin-area account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole returns true if the user holds r.
func (u *User) HasRole(r Role) bool {
	return slices.Contains(u.Roles, r)
}

// Caller returns the identity used for authorization checks.
func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, Roles: u.Roles}
}

// Caller identifies who invokes a workflow operation. The zero value is an
// anonymous caller with no roles.
type Caller struct {
	UserID int64
	Roles  []Role
}

// Anonymous returns true when no user is attached.
func (c Caller) Anonymous() bool {
	return c.UserID == 0
}
