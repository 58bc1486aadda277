package domain

import "time"

// UserRole distinguishes the marketplace account types.
type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleHandyman UserRole = "HANDYMAN"
	RoleAdmin    UserRole = "ADMIN"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusPending   UserStatus = "PENDING"
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for marketplace accounts. Accounts start as
// PENDING and become ACTIVE once the registration code is verified.
type User struct {
	ID           string
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	AvatarURL    *string
	City         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegistrableRole reports whether role is one a client may sign up as.
func RegistrableRole(role UserRole) bool {
	return role == RoleCustomer || role == RoleHandyman
}
