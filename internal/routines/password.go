package routines

import (
	"crypto/sha256"
	"encoding/hex"
)

const passwordLength = 4

// HashPassword returns the hex SHA-256 digest of a session code. The code is
// a deterrent against accidental edits, not an access-control boundary.
func HashPassword(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(candidate, storedHash string) bool {
	return HashPassword(candidate) == storedHash
}

func validatePassword(code string) error {
	if code == "" {
		return &ValidationError{Field: "password", Reason: "required"}
	}
	if len(code) != passwordLength {
		return &ValidationError{Field: "password", Reason: "must be exactly 4 digits"}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return &ValidationError{Field: "password", Reason: "must be exactly 4 digits"}
		}
	}
	return nil
}

// Gate decides whether a code may edit or delete a session.
type Gate interface {
	Authorize(s Session, code string) error
}

// PasswordGate checks the code against the session's stored hash. A non-empty
// AdminCode unlocks every session.
type PasswordGate struct {
	AdminCode string
}

func (g PasswordGate) Authorize(s Session, code string) error {
	if err := validatePassword(code); err != nil {
		return err
	}
	if g.AdminCode != "" && code == g.AdminCode {
		return nil
	}
	if len(s.Documents) == 0 {
		return ErrSessionNotFound
	}
	stored := s.Documents[0].PasswordHash
	if stored == "" || !VerifyPassword(code, stored) {
		return ErrWrongPassword
	}
	return nil
}
