// Package crypto implements the password hash schemes supported by the SQL
// backend. Every scheme satisfies the Algorithm interface and is registered
// under a stable identifier that the admin settings persist.
package crypto

import (
	"crypto/subtle"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrSaltRequired is returned by schemes that cannot operate without an
	// external salt column.
	ErrSaltRequired = fmt.Errorf("crypto: salt required but not provided")
	// ErrUnknownAlgorithm is returned when a persisted identifier does not
	// name a supported scheme. This is a configuration error and callers
	// must not fall back to another scheme.
	ErrUnknownAlgorithm = fmt.Errorf("crypto: unknown algorithm")
	// ErrMalformedHash is returned when a stored hash cannot be parsed by
	// the selected scheme.
	ErrMalformedHash = fmt.Errorf("crypto: malformed hash")
)

// Algorithm is the contract every password scheme implements.
//
// Hash produces a storable hash for the given password. The salt pointer is
// the value of the configured external salt column, nil when the column is
// unset or NULL for the row. Verify reports whether password matches the
// stored hash. Implementations compare digests in constant time.
type Algorithm interface {
	Hash(password string, salt *string) (string, error)
	Verify(password, dbHash string, salt *string) (bool, error)
	DisplayName() string
	Params() []Param
}

// ParamKind discriminates tunable parameter types for the settings UI.
type ParamKind string

const (
	IntKind    ParamKind = "int"
	ChoiceKind ParamKind = "choice"
)

// Param describes one tunable cost or choice parameter of a scheme so the
// settings layer can render and validate it without per-scheme knowledge.
type Param struct {
	Kind    ParamKind `json:"type"`
	Name    string    `json:"name"`
	Default string    `json:"value"`
	Min     int       `json:"min,omitempty"`
	Max     int       `json:"max,omitempty"`
	Choices []string  `json:"choices,omitempty"`
}

// Factory builds an Algorithm from its persisted parameter strings. Missing
// parameters select the scheme defaults.
type Factory func(params []string) (Algorithm, error)

var registry = map[string]Factory{
	"cleartext":        func([]string) (Algorithm, error) { return Cleartext{}, nil },
	"md5":              func([]string) (Algorithm, error) { return MD5{}, nil },
	"sha1":             func([]string) (Algorithm, error) { return SHA1{}, nil },
	"sha256":           func([]string) (Algorithm, error) { return SHA256{}, nil },
	"sha512":           func([]string) (Algorithm, error) { return SHA512{}, nil },
	"sha512-whirlpool": func([]string) (Algorithm, error) { return SHA512Whirlpool{}, nil },
	"courier-md5":      func([]string) (Algorithm, error) { return CourierMD5{}, nil },
	"courier-md5raw":   func([]string) (Algorithm, error) { return CourierMD5Raw{}, nil },
	"courier-sha1":     func([]string) (Algorithm, error) { return CourierSHA1{}, nil },
	"courier-sha256":   func([]string) (Algorithm, error) { return CourierSHA256{}, nil },
	"ssha256":          func([]string) (Algorithm, error) { return SSHA256{newSSHA256()}, nil },
	"ssha512":          func([]string) (Algorithm, error) { return SSHA512{newSSHA512()}, nil },
	"joomla":           func([]string) (Algorithm, error) { return Joomla{}, nil },
	"mybb":             func([]string) (Algorithm, error) { return MyBB{}, nil },
	"md5-md5-salt":     func([]string) (Algorithm, error) { return MD5MD5Salt{}, nil },
	"redmine":          func([]string) (Algorithm, error) { return Redmine{}, nil },
	"hmac":             newHMAC,
	"phpass":           newPhpass,
	"drupal7":          func([]string) (Algorithm, error) { return Drupal7{}, nil },
	"wcf2":             func([]string) (Algorithm, error) { return WCF2{}, nil },
	"bcrypt":           newBcrypt,
	"argon2i":          newArgon2i,
	"argon2id":         newArgon2id,
	"crypt":            func([]string) (Algorithm, error) { return Crypt{}, nil },
	"crypt-md5":        func([]string) (Algorithm, error) { return newCryptMD5(), nil },
	"crypt-apr1":       func([]string) (Algorithm, error) { return newCryptAPR1(), nil },
	"crypt-sha256":     newCryptSHA256,
	"crypt-sha512":     newCryptSHA512,
	"crypt-des":        func([]string) (Algorithm, error) { return CryptDES{}, nil },
	"crypt-ext-des":    newCryptExtDES,
}

// New resolves a persisted algorithm identifier to a configured instance.
// Unknown identifiers are rejected here, at configuration time, not at the
// first password check.
func New(id string, params []string) (Algorithm, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, id)
	}
	return factory(params)
}

// IDs lists the supported algorithm identifiers in stable order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// hashEqual compares two hash strings in constant time.
func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// intParam parses params[idx] as an int, falling back to def when the
// parameter is absent or empty.
func intParam(params []string, idx, def int) (int, error) {
	if idx >= len(params) || params[idx] == "" {
		return def, nil
	}
	v, err := strconv.Atoi(params[idx])
	if err != nil {
		return 0, fmt.Errorf("crypto: invalid parameter %q: %w", params[idx], err)
	}
	return v, nil
}

// strParam returns params[idx] or def when absent.
func strParam(params []string, idx int, def string) string {
	if idx >= len(params) || params[idx] == "" {
		return def
	}
	return params[idx]
}
