package snapshot

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrDecryptionFailed  = errors.New("snapshot: decryption failed - wrong key or corrupted data")
)

const (
	// MinKeyLength is the minimum key length for encryption.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the fixed salt length used in key derivation.
	SaltLength = 16

	// SaltKey is the KV key holding the passphrase salt.
	SaltKey = "recofeed/snapshot/salt"

	// subkeyInfo separates the snapshot key from any other key derived
	// from the same passphrase.
	subkeyInfo = "recofeed snapshot v1"

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// EncryptionConfig configures snapshot encryption.
type EncryptionConfig struct {
	// Key is the raw encryption key (32 bytes).
	// Either Key or Passphrase must be provided.
	Key []byte

	// Passphrase is used to derive the encryption key.
	// If provided, Key is ignored.
	Passphrase []byte

	// Salt is the argon2id salt. If nil with a Passphrase set, a random
	// salt is generated and returned by NewCipherFromConfig.
	Salt []byte

	// Algorithm specifies the encryption algorithm.
	// Supported: "aes-gcm" (default), "chacha20-poly1305", "auto".
	Algorithm string
}

// ValidateConfig validates the encryption configuration.
func ValidateConfig(cfg EncryptionConfig) error {
	if len(cfg.Passphrase) > 0 {
		if len(cfg.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		return nil
	}

	if len(cfg.Key) > 0 && len(cfg.Key) < MinKeyLength {
		return ErrKeyTooShort
	}

	return nil
}

// NewCipherFromConfig creates a cipher from the encryption configuration.
// It returns the salt used for passphrase derivation; the caller must
// persist it to decrypt later. An empty config yields a nil cipher.
func NewCipherFromConfig(cfg EncryptionConfig) (adaptive.Cipher, []byte, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}

	var key, salt []byte
	switch {
	case len(cfg.Passphrase) > 0:
		derived, err := DeriveKeyFromPassphrase(cfg.Passphrase, cfg.Salt)
		if err != nil {
			return nil, nil, err
		}
		var master []byte
		salt, master, err = ExtractKeyFromDerived(derived)
		if err != nil {
			return nil, nil, err
		}
		key, err = DeriveSubkey(master, subkeyInfo, argon2KeyLen)
		ZeroKey(master)
		if err != nil {
			return nil, nil, err
		}
	case len(cfg.Key) > 0:
		key = cfg.Key
	default:
		return nil, nil, nil
	}

	algo := adaptive.CipherAESGCM
	if cfg.Algorithm != "" {
		parsed, err := adaptive.ParseCipherType(cfg.Algorithm)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: %w", err)
		}
		algo = parsed
	}

	c, err := adaptive.NewWithType(key, algo)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	return c, salt, nil
}

// CipherFromPassphrase builds the snapshot cipher for passphrase, reading
// the salt from kv or creating and storing one on first use. An empty
// passphrase returns a nil cipher and leaves kv untouched.
func CipherFromPassphrase(ctx context.Context, kv storage.KV, passphrase []byte, algorithm string) (adaptive.Cipher, error) {
	if len(passphrase) == 0 {
		return nil, nil
	}

	salt, err := kv.Get(ctx, []byte(SaltKey))
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		salt = nil
	case err != nil:
		return nil, fmt.Errorf("snapshot: read salt: %w", err)
	case len(salt) != SaltLength:
		return nil, fmt.Errorf("snapshot: stored salt has length %d, want %d", len(salt), SaltLength)
	}

	c, newSalt, err := NewCipherFromConfig(EncryptionConfig{
		Passphrase: passphrase,
		Salt:       salt,
		Algorithm:  algorithm,
	})
	if err != nil {
		return nil, err
	}

	if salt == nil {
		if err := kv.Set(ctx, []byte(SaltKey), newSalt); err != nil {
			return nil, fmt.Errorf("snapshot: store salt: %w", err)
		}
	}
	return c, nil
}

// DeriveKeyFromPassphrase derives a 32-byte key from a passphrase using
// Argon2id and returns salt||key. A nil salt is replaced by a random one.
func DeriveKeyFromPassphrase(passphrase []byte, salt []byte) ([]byte, error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("snapshot: derive key: %w", err)
		}
	}

	key := argon2.IDKey(
		passphrase,
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	result := make([]byte, len(salt)+len(key))
	copy(result, salt)
	copy(result[len(salt):], key)
	return result, nil
}

// ExtractKeyFromDerived splits salt||key produced by DeriveKeyFromPassphrase.
func ExtractKeyFromDerived(derived []byte) (salt, key []byte, err error) {
	if len(derived) != SaltLength+argon2KeyLen {
		return nil, nil, fmt.Errorf("snapshot: invalid derived key length")
	}
	return derived[:SaltLength], derived[SaltLength:], nil
}

// DeriveSubkey derives a subkey from a master key using HKDF-SHA256.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// ZeroKey zeros a key in memory.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
