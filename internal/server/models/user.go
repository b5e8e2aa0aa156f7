// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Staff users are admins; a non-staff user with a Profile
// is an employee.
type User struct {
	ID           int64
	UserName     string
	PasswordHash string
	Email        string
	IsStaff      bool
	DateJoined   time.Time
	LastLogin    *time.Time
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   int64
	UserName string
	IsStaff  bool
}

// PrincipalOf builds the Principal for u.
func PrincipalOf(u *User) Principal {
	return Principal{UserID: u.ID, UserName: u.UserName, IsStaff: u.IsStaff}
}
