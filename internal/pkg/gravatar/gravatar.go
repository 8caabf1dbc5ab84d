package gravatar

import (
	"crypto/md5"
	"fmt"
)

// URL returns the Gravatar identicon URL for the given email. Accounts get
// this as their avatar until they upload one of their own. The hash input is
// the exact email string, matching the store's exact-match email semantics.
func URL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=250", sum)
}
