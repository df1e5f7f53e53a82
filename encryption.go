package trellis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EncryptionNonceSize is the nonce size for AES-GCM
	EncryptionNonceSize = 12
	// EncryptionSaltSize is the salt size for key derivation
	EncryptionSaltSize = 32
	// EncryptionKeySize is the AES-256 key size
	EncryptionKeySize = 32
	// PBKDF2Iterations is the number of iterations for key derivation
	PBKDF2Iterations = 100000
)

// EncryptionConfig configures encryption at rest for dataset artifacts.
type EncryptionConfig struct {
	// Enabled turns on encryption for stored artifacts
	Enabled bool
	// Key is the encryption key (must be 32 bytes for AES-256)
	// If empty, KeyPassword is used to derive a key
	Key []byte
	// KeyPassword is used to derive the encryption key via PBKDF2
	KeyPassword string
}

// Encryptor provides encryption/decryption for stored artifacts.
type Encryptor struct {
	gcm      cipher.AEAD
	salt     []byte
	password string
}

// NewEncryptor creates a new encryptor from a key or password. Returns
// (nil, nil) when encryption is disabled.
func NewEncryptor(cfg EncryptionConfig) (*Encryptor, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var key []byte
	var salt []byte

	if len(cfg.Key) > 0 {
		if len(cfg.Key) != EncryptionKeySize {
			return nil, errors.New("encryption key must be 32 bytes for AES-256")
		}
		key = cfg.Key
	} else if cfg.KeyPassword != "" {
		salt = make([]byte, EncryptionSaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		key = pbkdf2.Key([]byte(cfg.KeyPassword), salt, PBKDF2Iterations, EncryptionKeySize, sha256.New)
	} else {
		return nil, errors.New("encryption enabled but no key or password provided")
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &Encryptor{gcm: gcm, salt: salt, password: cfg.KeyPassword}, nil
}

// NewEncryptorWithSalt creates an encryptor using an existing salt, for
// decrypting artifacts written by another process.
func NewEncryptorWithSalt(password string, salt []byte) (*Encryptor, error) {
	if len(salt) != EncryptionSaltSize {
		return nil, errors.New("invalid salt size")
	}
	key := pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, EncryptionKeySize, sha256.New)
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &Encryptor{gcm: gcm, salt: salt}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Salt returns the salt used for key derivation, nil for raw keys.
func (e *Encryptor) Salt() []byte {
	return e.salt
}

// Encrypt encrypts plaintext and returns ciphertext with prepended nonce.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, EncryptionNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext (with prepended nonce) and returns plaintext.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < EncryptionNonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:EncryptionNonceSize]
	ciphertext = ciphertext[EncryptionNonceSize:]
	return e.gcm.Open(nil, nonce, ciphertext, nil)
}

// MagicEncrypted is the magic prefix of encrypted artifacts.
var MagicEncrypted = [4]byte{'T', 'E', 'N', 'C'}

// encryptedHeaderSize is magic + version + salt.
const encryptedHeaderSize = 4 + 1 + EncryptionSaltSize

// EncryptedBackend wraps a StorageBackend so every artifact is stored
// AES-GCM encrypted. Each artifact carries its own header with the key
// derivation salt, so artifacts written with different salts remain
// readable as long as the password matches.
type EncryptedBackend struct {
	inner StorageBackend
	enc   *Encryptor
}

var _ StorageBackend = (*EncryptedBackend)(nil)

// NewEncryptedBackend wraps inner with encryption per cfg. When cfg
// disables encryption, inner is returned unchanged.
func NewEncryptedBackend(inner StorageBackend, cfg EncryptionConfig) (StorageBackend, error) {
	enc, err := NewEncryptor(cfg)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return inner, nil
	}
	return &EncryptedBackend{inner: inner, enc: enc}, nil
}

func (b *EncryptedBackend) Write(ctx context.Context, key string, data []byte) error {
	ciphertext, err := b.enc.Encrypt(data)
	if err != nil {
		return err
	}
	buf := make([]byte, encryptedHeaderSize, encryptedHeaderSize+len(ciphertext))
	copy(buf[0:4], MagicEncrypted[:])
	buf[4] = 1
	copy(buf[5:], b.enc.Salt())
	return b.inner.Write(ctx, key, append(buf, ciphertext...))
}

func (b *EncryptedBackend) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(data) < encryptedHeaderSize || [4]byte(data[0:4]) != MagicEncrypted {
		return nil, errors.New("artifact is not encrypted")
	}
	salt := data[5:encryptedHeaderSize]
	dec := b.enc
	if !saltEqual(salt, b.enc.Salt()) && b.enc.password != "" {
		// Written under a different salt; re-derive with the same password.
		var err error
		dec, err = NewEncryptorWithSalt(b.enc.password, salt)
		if err != nil {
			return nil, err
		}
	}
	return dec.Decrypt(data[encryptedHeaderSize:])
}

func (b *EncryptedBackend) Delete(ctx context.Context, key string) error {
	return b.inner.Delete(ctx, key)
}

func (b *EncryptedBackend) List(ctx context.Context, prefix string) ([]string, error) {
	return b.inner.List(ctx, prefix)
}

func (b *EncryptedBackend) Exists(ctx context.Context, key string) (bool, error) {
	return b.inner.Exists(ctx, key)
}

func (b *EncryptedBackend) Close() error {
	return b.inner.Close()
}

func saltEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
