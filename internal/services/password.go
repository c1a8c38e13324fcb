package services

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the fixed work factor. The only password policy is a
// 6-character minimum enforced at the HTTP boundary; deliberately weak, and
// any strengthening belongs there, not here.
const bcryptCost = 10

// HashPassword returns a salted bcrypt hash. Two calls on the same input
// produce different hashes.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash and a plaintext password. A wrong
// password is false, never an error.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
