package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with bcrypt.  A non-positive
// cost falls back to the library default.
func HashPassword(plain string, cost int) (string, error) {
    if cost <= 0 {
        cost = bcrypt.DefaultCost
    }
    hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// Comparison failures and malformed hashes both read as a mismatch.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
