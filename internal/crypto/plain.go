package crypto

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/jzelinskie/whirlpool"
)

// Cleartext stores the password as-is. Verification still goes through the
// constant-time comparator.
type Cleartext struct{}

func (Cleartext) Hash(password string, _ *string) (string, error) { return password, nil }

func (Cleartext) Verify(password, dbHash string, _ *string) (bool, error) {
	return hashEqual(dbHash, password), nil
}

func (Cleartext) DisplayName() string { return "Cleartext" }
func (Cleartext) Params() []Param     { return nil }

// MD5 is a plain hex-encoded MD5 digest.
type MD5 struct{}

func (MD5) Hash(password string, _ *string) (string, error) {
	return md5Hex(password), nil
}

func (a MD5) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (MD5) DisplayName() string { return "MD5" }
func (MD5) Params() []Param     { return nil }

// SHA1 is a plain hex-encoded SHA-1 digest.
type SHA1 struct{}

func (SHA1) Hash(password string, _ *string) (string, error) {
	return sha1Hex(password), nil
}

func (a SHA1) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (SHA1) DisplayName() string { return "SHA1" }
func (SHA1) Params() []Param     { return nil }

// SHA256 is a plain hex-encoded SHA-256 digest.
type SHA256 struct{}

func (SHA256) Hash(password string, _ *string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (a SHA256) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (SHA256) DisplayName() string { return "SHA256" }
func (SHA256) Params() []Param     { return nil }

// SHA512 is a plain hex-encoded SHA-512 digest.
type SHA512 struct{}

func (SHA512) Hash(password string, _ *string) (string, error) {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (a SHA512) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (SHA512) DisplayName() string { return "SHA512" }
func (SHA512) Params() []Param     { return nil }

// SHA512Whirlpool hashes the hex SHA-512 digest once more with Whirlpool.
type SHA512Whirlpool struct{}

func (SHA512Whirlpool) Hash(password string, _ *string) (string, error) {
	inner := sha512.Sum512([]byte(password))
	w := whirlpool.New()
	w.Write([]byte(hex.EncodeToString(inner[:])))
	return hex.EncodeToString(w.Sum(nil)), nil
}

func (a SHA512Whirlpool) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (SHA512Whirlpool) DisplayName() string { return "SHA512 Whirlpool" }
func (SHA512Whirlpool) Params() []Param     { return nil }

// verifyRecompute is the default verification: re-hash the candidate and
// compare in constant time.
func verifyRecompute(a Algorithm, password, dbHash string, salt *string) (bool, error) {
	computed, err := a.Hash(password, salt)
	if err != nil {
		return false, err
	}
	return hashEqual(dbHash, computed), nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
