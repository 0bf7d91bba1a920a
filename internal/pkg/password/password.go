package password

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
)

var ErrEmptyPassword = errors.New("empty password")

// Params are the argon2id cost parameters. They travel with the hasher, not
// the stored record, so changing them only affects newly derived hashes.
type Params struct {
	Time    uint32
	MemKiB  uint32
	Threads uint8
}

func DefaultParams() Params {
	return Params{Time: 1, MemKiB: 64 * 1024, Threads: 4}
}

// Hasher derives and verifies salted argon2id password hashes. The salt is
// generated per user from a CSPRNG and stored next to the hash.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	if p.Time == 0 || p.MemKiB == 0 || p.Threads == 0 {
		p = DefaultParams()
	}
	return &Hasher{params: p}
}

// Hash derives a fresh salt and the corresponding hash for the plaintext.
// The plaintext itself is never retained.
func (h *Hasher) Hash(plaintext string) (hash, salt []byte, err error) {
	if plaintext == "" {
		return nil, nil, ErrEmptyPassword
	}

	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}

	hash = argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemKiB, h.params.Threads, keyLen)
	return hash, salt, nil
}

// Verify recomputes the hash from the supplied plaintext and stored salt and
// compares it in constant time against the stored hash.
func (h *Hasher) Verify(plaintext string, hash, salt []byte) bool {
	if plaintext == "" || len(hash) == 0 || len(salt) == 0 {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemKiB, h.params.Threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
