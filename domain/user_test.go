package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestSetPassword(t *testing.T) {
	u := User{Username: "slavik"}
	u.SetPassword("password")
	assert.Len(t, u.Hash, 80)
	hash, err := base64.StdEncoding.DecodeString(u.Hash)
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("password")))
	assert.Error(t, bcrypt.CompareHashAndPassword(hash, []byte("wrong")))
}

func TestUserTypeString(t *testing.T) {
	assert.Equal(t, "Admin", UserType(UserTypeAdmin).String())
	assert.Equal(t, "Viewer", UserType(UserTypeViewer).String())
	assert.Equal(t, "Unknown", UserType(9).String())
}
