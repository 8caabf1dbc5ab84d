package password

import "golang.org/x/crypto/bcrypt"

// cost is the bcrypt work factor. bcrypt.DefaultCost (10) matches the cost
// all existing stored hashes were produced with; changing it only affects
// newly hashed passwords.
const cost = bcrypt.DefaultCost

// Hash returns the salted bcrypt hash of plaintext.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed stored hash
// fails closed: bcrypt returns an error and Verify returns false.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
