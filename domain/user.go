package domain

import (
	"encoding/base64"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type UserType int

const (
	// UserTypeAdmin - can manage users and see everything
	UserTypeAdmin = iota
	// UserTypeViewer - can read the reports but not change anything
	UserTypeViewer
)

// Stringer implementation
func (s UserType) String() string {
	switch s {
	case UserTypeAdmin:
		return "Admin"
	case UserTypeViewer:
		return "Viewer"
	default:
		return "Unknown"
	}
}

// User holds information about an admin user of the reporting interface.
type User struct {
	Username   string    `json:"username"`
	Hash       string    `json:"hash"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Type       UserType  `json:"type"`
	LastLogin  time.Time `json:"lastLogin" db:"last_login"`
	ModifyDate time.Time `json:"modifyDate" db:"modify_date"`
}

// GetHashFromPassword returns the hash based on bcrypt
func GetHashFromPassword(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return base64.StdEncoding.EncodeToString(hash)
}

// SetPassword sets the password on the user with bcrypt
func (u *User) SetPassword(password string) {
	u.Hash = GetHashFromPassword(password)
}

// UserFilterFields is the list of fields we should filter when sending to clients
var UserFilterFields = []string{"hash"}
