// bcrypt password hashing.
//
// A stored hash carries its own salt and cost:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^ cost: 2^12 rounds
//
// so the users table needs a single password_hash column and old hashes keep
// verifying after BCRYPT_COST changes.

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used when the configured one is out of
// range. At 12 a hash takes a few hundred milliseconds on server hardware.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer input would be silently
// truncated, so Hash refuses it.
const MaxPasswordBytes = 72

var (
	// ErrMismatch is returned by Verify when the password is wrong.
	ErrMismatch = errors.New("auth: invalid password")
	// ErrPasswordTooLong is returned by Hash for input over MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
)

// PasswordService hashes and verifies passwords at a fixed bcrypt cost.
// Tests pass bcrypt.MinCost to keep registration fast.
type PasswordService struct {
	cost int
}

func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext, ready to store as is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares plaintext against a stored hash in constant time. It
// returns nil on a match, ErrMismatch on a wrong password, and a wrapped
// error when the hash itself is unreadable.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
