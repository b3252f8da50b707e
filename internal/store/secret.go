package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/achapweske/silvernote/internal/model"
)

// checkPlaintext is sealed with the key derived from the secret. A store
// opens only if the check value decrypts back to it.
var checkPlaintext = []byte("silvernote repository key check")

const saltSize = 16

func deriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
}

func seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func unseal(key, sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("sealed value too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// unlock verifies secret against the stored check value. A store without a
// check value opens with any secret.
func (s *Store) unlock(ctx context.Context, secret string) error {
	check, err := queryBytes(ctx, s.db, `SELECT secret_check FROM Repository LIMIT 1`)
	check, err = orDefault(check, err, nil)
	if err != nil {
		return fmt.Errorf("read secret check: %w", err)
	}
	if check == nil {
		return nil
	}
	if secret == "" {
		return fmt.Errorf("store is protected: %w", model.ErrUnauthorized)
	}
	salt, err := queryBytes(ctx, s.db, `SELECT secret_salt FROM Repository LIMIT 1`)
	if err != nil {
		return fmt.Errorf("read secret salt: %w", err)
	}
	plain, err := unseal(deriveKey(secret, salt), check)
	if err != nil || string(plain) != string(checkPlaintext) {
		return fmt.Errorf("secret does not match: %w", model.ErrUnauthorized)
	}
	return nil
}

// SetSecret protects the store with secret; later opens must present it.
// An empty secret removes the protection.
func (s *Store) SetSecret(ctx context.Context, secret string) error {
	if secret == "" {
		_, err := s.db.ExecContext(ctx, `UPDATE Repository SET secret_salt=NULL, secret_check=NULL`)
		if err != nil {
			return fmt.Errorf("clear secret: %w", err)
		}
		return nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("salt: %w", err)
	}
	check, err := seal(deriveKey(secret, salt), checkPlaintext)
	if err != nil {
		return fmt.Errorf("set secret: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE Repository SET secret_salt=?, secret_check=?`, salt, check); err != nil {
		return fmt.Errorf("set secret: %w", err)
	}
	s.log.Info(ctx, "secret updated")
	return nil
}

// Protected reports whether opening the store requires a secret.
func (s *Store) Protected(ctx context.Context) (bool, error) {
	check, err := queryBytes(ctx, s.db, `SELECT secret_check FROM Repository LIMIT 1`)
	check, err = orDefault(check, err, nil)
	if err != nil {
		return false, fmt.Errorf("read secret check: %w", err)
	}
	return check != nil, nil
}
