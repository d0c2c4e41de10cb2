package crypto

import (
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt/apr1_crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	libcrypt "github.com/amoghe/go-crypt"
	"golang.org/x/crypto/bcrypt"

	gehirn "github.com/GehirnInc/crypt"
)

// gehirnAlgorithm adapts a GehirnInc crypter to the Algorithm contract. The
// salt settings string for new hashes is produced by genSalt; verification
// reads everything from the stored hash, as crypt(3) does.
type gehirnAlgorithm struct {
	name    string
	crypter gehirn.Crypter
	genSalt func() string
	params  []Param
}

func (g gehirnAlgorithm) Hash(password string, _ *string) (string, error) {
	hash, err := g.crypter.Generate([]byte(password), []byte(g.genSalt()))
	if err != nil {
		return "", fmt.Errorf("crypto: %s: %w", g.name, err)
	}
	return hash, nil
}

func (g gehirnAlgorithm) Verify(password, dbHash string, _ *string) (bool, error) {
	// Verify reports a mismatch and a malformed hash the same way; both
	// must fail closed.
	return g.crypter.Verify(dbHash, []byte(password)) == nil, nil
}

func (g gehirnAlgorithm) DisplayName() string { return g.name }
func (g gehirnAlgorithm) Params() []Param     { return g.params }

// CryptMD5 is the $1$ MD5 crypt flavor.
type CryptMD5 struct{ gehirnAlgorithm }

// CryptAPR1 is the Apache $apr1$ MD5 crypt flavor.
type CryptAPR1 struct{ gehirnAlgorithm }

// CryptSHA256 is the $5$ SHA-256 crypt flavor with a rounds parameter.
type CryptSHA256 struct{ gehirnAlgorithm }

// CryptSHA512 is the $6$ SHA-512 crypt flavor with a rounds parameter.
type CryptSHA512 struct{ gehirnAlgorithm }

func newCryptMD5() CryptMD5 {
	return CryptMD5{gehirnAlgorithm{
		name:    "MD5 (Crypt)",
		crypter: md5_crypt.New(),
		genSalt: func() string { return "$1$" + randomString(8, saltAlphabet) },
	}}
}

func newCryptAPR1() CryptAPR1 {
	return CryptAPR1{gehirnAlgorithm{
		name:    "APR1 MD5 (Crypt)",
		crypter: apr1_crypt.New(),
		genSalt: func() string { return "$apr1$" + randomString(8, saltAlphabet) },
	}}
}

func newCryptSHA256(params []string) (Algorithm, error) {
	rounds, err := intParam(params, 0, 5000)
	if err != nil {
		return nil, err
	}
	return CryptSHA256{gehirnAlgorithm{
		name:    "SHA256 (Crypt)",
		crypter: sha256_crypt.New(),
		genSalt: func() string {
			return fmt.Sprintf("$5$rounds=%d$%s$", rounds, randomString(16, saltAlphabet))
		},
		params: []Param{{Kind: IntKind, Name: "Rounds", Default: "5000", Min: 1000, Max: 999999999}},
	}}, nil
}

func newCryptSHA512(params []string) (Algorithm, error) {
	rounds, err := intParam(params, 0, 5000)
	if err != nil {
		return nil, err
	}
	return CryptSHA512{gehirnAlgorithm{
		name:    "SHA512 (Crypt)",
		crypter: sha512_crypt.New(),
		genSalt: func() string {
			return fmt.Sprintf("$6$rounds=%d$%s$", rounds, randomString(16, saltAlphabet))
		},
		params: []Param{{Kind: IntKind, Name: "Rounds", Default: "5000", Min: 1000, Max: 999999999}},
	}}, nil
}

// libcCrypt recomputes a hash with the system crypt(3), using the stored
// hash as the settings string. This is how the DES flavors verify, since
// their cipher core is only available through the platform primitive.
func libcCrypt(password, setting string) (string, bool) {
	out, err := libcrypt.Crypt(password, setting)
	if err != nil {
		return "", false
	}
	return out, true
}

// CryptDES is the traditional two-character-salt DES crypt.
type CryptDES struct{}

func (CryptDES) Hash(password string, _ *string) (string, error) {
	out, ok := libcCrypt(password, randomString(2, saltAlphabet))
	if !ok {
		return "", fmt.Errorf("crypto: DES crypt unavailable")
	}
	return out, nil
}

func (CryptDES) Verify(password, dbHash string, _ *string) (bool, error) {
	computed, ok := libcCrypt(password, dbHash)
	if !ok {
		return false, nil
	}
	return hashEqual(dbHash, computed), nil
}

func (CryptDES) DisplayName() string { return "Standard DES (Crypt)" }
func (CryptDES) Params() []Param     { return nil }

// CryptExtDES is the BSDi extended DES crypt. The settings string is an
// underscore, the iteration count encoded least-significant character first
// over the crypt alphabet and padded to four characters with dots, and a
// four-character salt.
type CryptExtDES struct {
	iterations int
}

func newCryptExtDES(params []string) (Algorithm, error) {
	iterations, err := intParam(params, 0, 1000)
	if err != nil {
		return nil, err
	}
	return CryptExtDES{iterations: iterations}, nil
}

// encodeIterations writes n in base 64 over the crypt alphabet, least
// significant character first, padded to four characters.
func encodeIterations(n int) string {
	var chars []byte
	for n > 0 {
		chars = append(chars, saltAlphabet[n%64])
		n /= 64
	}
	for len(chars) < 4 {
		chars = append(chars, '.')
	}
	return string(chars[:4])
}

func (c CryptExtDES) Hash(password string, _ *string) (string, error) {
	setting := "_" + encodeIterations(c.iterations) + randomString(4, saltAlphabet)
	out, ok := libcCrypt(password, setting)
	if !ok {
		return "", fmt.Errorf("crypto: extended DES crypt unavailable")
	}
	return out, nil
}

func (c CryptExtDES) Verify(password, dbHash string, _ *string) (bool, error) {
	computed, ok := libcCrypt(password, dbHash)
	if !ok {
		return false, nil
	}
	return hashEqual(dbHash, computed), nil
}

func (CryptExtDES) DisplayName() string { return "Extended DES (Crypt)" }

func (CryptExtDES) Params() []Param {
	return []Param{{Kind: IntKind, Name: "Iterations", Default: "1000", Min: 0, Max: 16777215}}
}

// Crypt is the autodetecting Unix crypt scheme: the stored hash selects the
// flavor by its prefix. Hashing a new password produces bcrypt, the
// platform default.
type Crypt struct{}

func (Crypt) Hash(password string, _ *string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("crypto: crypt: %w", err)
	}
	return string(hash), nil
}

func (Crypt) Verify(password, dbHash string, salt *string) (bool, error) {
	switch {
	case strings.HasPrefix(dbHash, "$2a$"),
		strings.HasPrefix(dbHash, "$2b$"),
		strings.HasPrefix(dbHash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(dbHash), []byte(password)) == nil, nil
	case strings.HasPrefix(dbHash, "$argon2id$"):
		return Argon2id{}.Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "$argon2i$"):
		return Argon2i{}.Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "$1$"):
		return newCryptMD5().Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "$apr1$"):
		return newCryptAPR1().Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "$5$"):
		a, err := newCryptSHA256(nil)
		if err != nil {
			return false, err
		}
		return a.Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "$6$"):
		a, err := newCryptSHA512(nil)
		if err != nil {
			return false, err
		}
		return a.Verify(password, dbHash, salt)
	case strings.HasPrefix(dbHash, "_"):
		return CryptExtDES{}.Verify(password, dbHash, salt)
	default:
		return CryptDES{}.Verify(password, dbHash, salt)
	}
}

func (Crypt) DisplayName() string { return "Unix (Crypt)" }
func (Crypt) Params() []Param     { return nil }
