// Package credentials derives and verifies password hashes with argon2id.
package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

const (
	SaltLength = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// ErrSaltGenerationFailed is returned when the random source could not fill a salt.
var ErrSaltGenerationFailed = errors.New("generating salt failed")

// Hasher derives password hashes. The zero value is not usable, use NewHasher.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithCost overrides the argon2id time and memory (KiB) parameters.
// Tests use a small cost to stay fast.
func WithCost(time uint32, memory uint32) Option {
	return func(h *Hasher) {
		h.time = time
		h.memory = memory
	}
}

// NewHasher creates a Hasher with the default argon2id parameters.
func NewHasher(opts ...Option) Hasher {
	h := Hasher{
		time:    argonTime,
		memory:  argonMemory,
		threads: argonThreads,
		keyLen:  argonKeyLen,
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Derive creates a fresh random salt and the hash of password over it.
func (h Hasher) Derive(password string) (salt []byte, hash []byte, err error) {
	salt = make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, errors.Join(ErrSaltGenerationFailed, err)
	}

	return salt, h.hash(password, salt), nil
}

// Verify reports whether password hashes to hash under salt. The comparison runs in constant time.
func (h Hasher) Verify(password string, salt []byte, hash []byte) bool {
	if len(salt) == 0 || len(hash) == 0 {
		return false
	}

	return subtle.ConstantTimeCompare(h.hash(password, salt), hash) == 1
}

func (h Hasher) hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
}
