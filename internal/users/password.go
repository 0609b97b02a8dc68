package users

import "golang.org/x/crypto/bcrypt"

// hashCost matches the work factor existing accounts were hashed with.
const hashCost = 10

// HashPassword derives a bcrypt hash from the plaintext.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// bcrypt compares in constant time.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
