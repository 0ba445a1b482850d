package testutil

import (
	"fmt"
	"math/rand"
)

// RandomSlug generates a unique slug with the given prefix.
// Tests share one database, so fixture slugs must not collide.
func RandomSlug(prefix string) string {
	return fmt.Sprintf("%s-%06d", prefix, rand.Intn(1000000))
}

// RandomPhone generates a random US-formatted phone number.
func RandomPhone() string {
	return fmt.Sprintf("+1 (555) %03d-%04d", rand.Intn(1000), rand.Intn(10000))
}

// RandomEmail generates a random email address with the given local-part prefix.
func RandomEmail(prefix string) string {
	return fmt.Sprintf("%s-%06d@example.com", prefix, rand.Intn(1000000))
}
