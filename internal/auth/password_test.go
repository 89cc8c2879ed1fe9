package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordService_Cost(t *testing.T) {
	tests := []struct {
		cost, want int
	}{
		{bcrypt.MinCost, bcrypt.MinCost},
		{10, 10},
		{0, DefaultCost},
		{bcrypt.MinCost - 1, DefaultCost},
		{bcrypt.MaxCost + 1, DefaultCost},
	}
	for _, tt := range tests {
		if got := NewPasswordService(tt.cost).cost; got != tt.want {
			t.Errorf("NewPasswordService(%d).cost = %d, want %d", tt.cost, got, tt.want)
		}
	}
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_EmbedsCostAndSalt(t *testing.T) {
	ps := NewPasswordService(5)

	first, err := ps.Hash("mentor-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := ps.Hash("mentor-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if cost, err := bcrypt.Cost([]byte(first)); err != nil || cost != 5 {
		t.Errorf("bcrypt.Cost(hash) = %d, %v; want 5", cost, err)
	}
	if first == second {
		t.Error("two hashes of one password are identical; salt is not random")
	}
}

func TestHash_Length(t *testing.T) {
	ps := NewPasswordService(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"72 ASCII bytes", strings.Repeat("a", MaxPasswordBytes), nil},
		{"73 ASCII bytes", strings.Repeat("a", MaxPasswordBytes+1), ErrPasswordTooLong},
		// 24 three-byte runes fit exactly; 25 do not even though they are 25 characters.
		{"72 bytes of runes", strings.Repeat("語", 24), nil},
		{"75 bytes of runes", strings.Repeat("語", 25), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Hash(tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Hash() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := NewPasswordService(bcrypt.MinCost)
	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name         string
		hash         string
		password     string
		wantErr      bool
		wantMismatch bool
	}{
		{"correct password", hash, "correct-horse-battery-staple", false, false},
		{"wrong password", hash, "correct-horse-battery-stapler", true, true},
		{"empty password", hash, "", true, true},
		{"different case", hash, "Correct-Horse-Battery-Staple", true, true},
		{"corrupt hash", "not-a-bcrypt-hash", "correct-horse-battery-staple", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrMismatch); got != tt.wantMismatch {
				t.Errorf("errors.Is(err, ErrMismatch) = %v, want %v (err: %v)", got, tt.wantMismatch, err)
			}
		})
	}
}

func TestHashVerify_NonASCII(t *testing.T) {
	ps := NewPasswordService(bcrypt.MinCost)

	for _, pw := range []string{"p@$$w0rd!#%", "пароль-密码", "  padded  "} {
		hash, err := ps.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", pw, err)
		}
		if err := ps.Verify(hash, pw); err != nil {
			t.Errorf("Verify(%q) error = %v", pw, err)
		}
	}
}
