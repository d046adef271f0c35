package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
)

const (
	alpha        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	alphaNumeric = alpha + "0123456789"
)

// SecureRandomString returns a random string of length size from crypto/rand.
// If alphaOnly, the result contains letters only, otherwise letters and digits.
func SecureRandomString(size int, alphaOnly bool) string {
	dictionary := alphaNumeric
	if alphaOnly {
		dictionary = alpha
	}
	max := big.NewInt(int64(len(dictionary)))
	b := make([]byte, size)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = dictionary[n.Int64()]
	}
	return string(b)
}

func gcmFromPass(pass []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(pass)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt the given plain text with AES-GCM using the given pass and return
// the result base64 encoded
func Encrypt(plain string, pass []byte) (string, error) {
	gcm, err := gcmFromPass(pass)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return "", err
	}
	ciph := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.URLEncoding.EncodeToString(ciph), nil
}

// Decrypt a base64 encoded AES-GCM cipher text with the given pass
func Decrypt(ciph string, pass []byte) (string, error) {
	data, err := base64.URLEncoding.DecodeString(ciph)
	if err != nil {
		return "", err
	}
	gcm, err := gcmFromPass(pass)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("cipher text too short")
	}
	plain, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptJSON marshals the given value and encrypts it with the given pass
func EncryptJSON(v interface{}, pass string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Encrypt(string(b), []byte(pass))
}

// DecryptJSON decrypts the given cipher text and unmarshals it into v
func DecryptJSON(ciph, pass string, v interface{}) error {
	plain, err := Decrypt(ciph, []byte(pass))
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(plain), v)
}
