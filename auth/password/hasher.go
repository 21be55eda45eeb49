// Package password hashes and verifies account passwords with bcrypt or
// argon2id.
//
//	hasher := password.NewHasher(cfg)
//	hash, err := hasher.Hash("correct horse")
//	err = hasher.Verify("correct horse", hash)
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes.
const maxBcryptLength = 72

var (
	// ErrMismatch is returned by Verify when the password does not match.
	ErrMismatch = errors.New("password: invalid password")

	// ErrTooShort is returned by Hash for passwords under the minimum length.
	ErrTooShort = errors.New("password: too short")
)

// Hasher hashes passwords and verifies them against stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost      int
	minLength int
}

// NewBcryptHasher creates a bcrypt hasher. Out-of-range costs fall back to
// bcrypt.DefaultCost.
func NewBcryptHasher(cost, minLength int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost, minLength: minLength}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLength); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)); err != nil {
		return ErrMismatch
	}
	return nil
}

// Argon2Hasher implements Hasher using argon2id. Hashes are encoded as
// $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH.
type Argon2Hasher struct {
	time      uint32
	memory    uint32
	threads   uint8
	keyLen    uint32
	saltLen   int
	minLength int
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	if err := checkLength(password, h.minLength); err != nil {
		return "", err
	}
	salt := make([]byte, h.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (h *Argon2Hasher) Verify(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return errors.New("password: invalid argon2id hash format")
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return fmt.Errorf("password: parse argon2id params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("password: decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("password: decode hash: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(hash, expected) != 1 {
		return ErrMismatch
	}
	return nil
}

func checkLength(password string, minLength int) error {
	if len(password) < minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrTooShort, minLength)
	}
	return nil
}

// bcryptInput cuts password to 72 bytes without splitting a UTF-8 sequence,
// so long passwords hash and verify the same way every time.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) <= maxBcryptLength {
		return b
	}
	b = b[:maxBcryptLength]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return b
}
