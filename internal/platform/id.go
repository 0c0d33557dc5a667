package platform

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const shortIDLength = 10

// NewID returns the UUID used as the primary key for tenants,
// instances, usage records and ledger transactions.
func NewID() string {
	return uuid.New().String()
}

// NewName returns a random lowercase name with the given prefix, used
// for instances created without an explicit name. The alphabet keeps it
// a valid hypervisor guest name.
func NewName(prefix string) string {
	b := make([]byte, shortIDLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = shortIDAlphabet[b[i]%byte(len(shortIDAlphabet))]
	}
	return prefix + string(b)
}
