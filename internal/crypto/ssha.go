package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
)

// ssha implements the salted-SHA family used by LDAP directories: the stored
// value is a scheme tag followed by base64(digest(password||salt) || salt).
// The salt is recovered from the stored hash on verification; new hashes use
// a random 32-character alphanumeric salt.
type ssha struct {
	prefix    string
	digestLen int
	newHash   func() hash.Hash
}

// payload is base64(digest(password||salt) || salt), the stored value
// without the scheme tag.
func (s ssha) payload(password, salt string) string {
	h := s.newHash()
	h.Write([]byte(password))
	h.Write([]byte(salt))
	return base64.StdEncoding.EncodeToString(append(h.Sum(nil), salt...))
}

func (s ssha) Hash(password string, _ *string) (string, error) {
	return s.prefix + s.payload(password, randomString(32, alnumAlphabet)), nil
}

// Verify strips the scheme tag case-insensitively and compares payloads, so
// stored hashes keep verifying whatever casing their tag was written with.
func (s ssha) Verify(password, dbHash string, _ *string) (bool, error) {
	encoded := dbHash
	if len(encoded) >= len(s.prefix) && strings.EqualFold(encoded[:len(s.prefix)], s.prefix) {
		encoded = encoded[len(s.prefix):]
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, ErrMalformedHash
	}
	if len(decoded) < s.digestLen {
		return false, ErrMalformedHash
	}
	salt := string(decoded[s.digestLen:])
	return hashEqual(encoded, s.payload(password, salt)), nil
}

func (ssha) Params() []Param { return nil }

type SSHA256 struct{ ssha }

func (SSHA256) DisplayName() string { return "SSHA256" }

type SSHA512 struct{ ssha }

func (SSHA512) DisplayName() string { return "SSHA512" }

func newSSHA256() ssha {
	return ssha{prefix: "{SSHA256}", digestLen: sha256.Size, newHash: sha256.New}
}

func newSSHA512() ssha {
	return ssha{prefix: "{SSHA512}", digestLen: sha512.Size, newHash: sha512.New}
}
