package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleStaff  UserRole = "staff"
	UserRoleMember UserRole = "member"
)

// Principal is the acting user. Batches act as a system principal.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     UserRole
}

func SystemPrincipal(username string) Principal {
	return Principal{Username: username, Role: UserRoleAdmin}
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsStaff() bool {
	return p.Role == UserRoleStaff
}

func (p Principal) CanWrite() bool {
	return p.IsAdmin() || p.IsStaff()
}
