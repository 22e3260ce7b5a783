package types

import (
	"errors"
	"strings"
)

// Identity is an authenticated principal: a merchant, a subscriber or any
// other caller. It is opaque to the engine and compared byte-for-byte.
type Identity string

// ErrEmptyIdentity is returned when parsing an empty identity.
var ErrEmptyIdentity = errors.New("types: empty identity")

// ParseIdentity trims s and rejects the empty string.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyIdentity
	}
	return Identity(s), nil
}

// String implements fmt.Stringer.
func (i Identity) String() string { return string(i) }

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool { return i == "" }
