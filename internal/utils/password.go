package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of plain at the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash with a candidate password in
// constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NeedsRehash reports whether hash was produced at a different cost than
// the one currently configured.
func NeedsRehash(hash string, cost int) bool {
	c, err := bcrypt.Cost([]byte(hash))
	return err != nil || c != cost
}
