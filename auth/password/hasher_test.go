package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashers(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bcrypt", Config{Algorithm: AlgorithmBcrypt, BcryptCost: 4}},
		{"argon2id", Config{Algorithm: AlgorithmArgon2id, Argon2Memory: 1024, Argon2Threads: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHasher(tt.cfg)
			hash, err := h.Hash("correct horse")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if hash == "correct horse" {
				t.Fatal("hash equals plaintext")
			}
			if err := h.Verify("correct horse", hash); err != nil {
				t.Errorf("Verify(correct) = %v", err)
			}
			if err := h.Verify("wrong horse", hash); !errors.Is(err, ErrMismatch) {
				t.Errorf("Verify(wrong) = %v", err)
			}
		})
	}
}

func TestLengthLimits(t *testing.T) {
	h := NewHasher(Config{BcryptCost: 4})
	if _, err := h.Hash("short"); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestBcryptTruncatesLongPasswords(t *testing.T) {
	h := NewBcryptHasher(4, 8)
	long := strings.Repeat("x", 71) + "ж" + "tail"
	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash(long) = %v", err)
	}
	if err := h.Verify(long, hash); err != nil {
		t.Errorf("Verify(long) = %v", err)
	}
	// The cut drops the split "ж", so the 71-byte prefix is what was hashed.
	if err := h.Verify(strings.Repeat("x", 71), hash); err != nil {
		t.Errorf("Verify(prefix) = %v", err)
	}
	if got := bcryptInput(long); len(got) != 71 {
		t.Errorf("bcryptInput kept %d bytes, want 71", len(got))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"scrypt", Config{Algorithm: "scrypt"}, true},
		{"cost too high", Config{BcryptCost: 40}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
