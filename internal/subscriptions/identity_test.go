package subscriptions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveUserID_PhoneStripsNonDigits(t *testing.T) {
	assert.Equal(t, "phone:5551234567", DeriveUserID("(555) 123-4567", ""))
	assert.Equal(t, "phone:15551234567", DeriveUserID("+1 555 123 4567", ""))
}

func TestDeriveUserID_PhoneIsDeterministic(t *testing.T) {
	// Different raw strings normalizing to the same digits yield the same id.
	a := DeriveUserID("(555) 123-4567", "")
	b := DeriveUserID("555.123.4567", "")
	assert.Equal(t, a, b)
}

func TestDeriveUserID_PhoneWinsOverEmail(t *testing.T) {
	assert.Equal(t, "phone:5551234567", DeriveUserID("5551234567", "alice@example.com"))
}

func TestDeriveUserID_EmailLowercased(t *testing.T) {
	assert.Equal(t, "email:alice@example.com", DeriveUserID("", "Alice@Example.COM"))

	// Case variants collapse; different addresses do not.
	assert.Equal(t, DeriveUserID("", "bob@example.com"), DeriveUserID("", "BOB@example.com"))
	assert.NotEqual(t, DeriveUserID("", "bob@example.com"), DeriveUserID("", "rob@example.com"))
}

func TestDeriveUserID_AnonymousFallback(t *testing.T) {
	a := DeriveUserID("", "")
	b := DeriveUserID("", "")

	assert.True(t, strings.HasPrefix(a, "anon:"))
	assert.NotEqual(t, a, b)
}

func TestDeriveUserID_PhoneWithNoDigitsFallsThrough(t *testing.T) {
	// A phone value that strips to nothing must not produce "phone:".
	assert.Equal(t, "email:x@y.z", DeriveUserID("---", "x@y.z"))
}
