package subscriptions

import (
	"strings"

	"github.com/google/uuid"
)

// User ID prefixes by derivation source.
const (
	userIDPrefixPhone = "phone:"
	userIDPrefixEmail = "email:"
	userIDPrefixAnon  = "anon:"
)

// DeriveUserID produces the stable subscriber identifier for a candidate
// subscription. Precedence: phone (digits only) over email (lowercased)
// over a freshly generated anonymous id. Phone and email derivations are
// deterministic; two raw phone strings that strip to the same digits yield
// the same id.
func DeriveUserID(phone, email string) string {
	if digits := stripNonDigits(phone); digits != "" {
		return userIDPrefixPhone + digits
	}
	if email != "" {
		return userIDPrefixEmail + strings.ToLower(email)
	}
	return userIDPrefixAnon + uuid.NewString()
}

func stripNonDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
