package password

import "fmt"

// Algorithm names a hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config configures password hashing.
type Config struct {
	// Algorithm selects the hashing scheme (default: "bcrypt").
	Algorithm Algorithm `mapstructure:"algorithm"`

	// BcryptCost is the bcrypt cost parameter (default: 12).
	BcryptCost int `mapstructure:"bcrypt_cost"`

	Argon2Time    uint32 `mapstructure:"argon2_time"`
	Argon2Memory  uint32 `mapstructure:"argon2_memory"` // KiB
	Argon2Threads uint8  `mapstructure:"argon2_threads"`

	// MinLength is the minimum accepted password length (default: 8).
	MinLength int `mapstructure:"min_length"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 1
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 4
	}
	if c.MinLength == 0 {
		c.MinLength = 8
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported algorithm: %s (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31 (got: %d)", c.BcryptCost)
	}
	if c.MinLength < 1 || c.MinLength > maxBcryptLength {
		return fmt.Errorf("min_length must be between 1 and %d (got: %d)", maxBcryptLength, c.MinLength)
	}
	return nil
}

// NewHasher creates the Hasher selected by cfg.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		return &Argon2Hasher{
			time:      cfg.Argon2Time,
			memory:    cfg.Argon2Memory,
			threads:   cfg.Argon2Threads,
			keyLen:    32,
			saltLen:   16,
			minLength: cfg.MinLength,
		}
	default:
		return NewBcryptHasher(cfg.BcryptCost, cfg.MinLength)
	}
}
