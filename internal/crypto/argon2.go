package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PHP's password_hash defaults for the Argon2 family.
const (
	argonDefaultMemory  = 65536
	argonDefaultTime    = 4
	argonDefaultThreads = 1
)

func argonParams() []Param {
	return []Param{
		{Kind: IntKind, Name: "Memory cost (KiB)", Default: "65536", Min: 1, Max: 1048576},
		{Kind: IntKind, Name: "Time cost", Default: "4", Min: 1, Max: 1024},
		{Kind: IntKind, Name: "Threads", Default: "1", Min: 1, Max: 1024},
	}
}

func argonCosts(params []string) (memory, time, threads int, err error) {
	if memory, err = intParam(params, 0, argonDefaultMemory); err != nil {
		return
	}
	if time, err = intParam(params, 1, argonDefaultTime); err != nil {
		return
	}
	threads, err = intParam(params, 2, argonDefaultThreads)
	return
}

// Argon2id delegates to the argon2id package, which performs its own
// constant-time comparison.
type Argon2id struct {
	memory, time, threads int
}

func newArgon2id(params []string) (Algorithm, error) {
	memory, time, threads, err := argonCosts(params)
	if err != nil {
		return nil, err
	}
	return Argon2id{memory: memory, time: time, threads: threads}, nil
}

func (a Argon2id) Hash(password string, _ *string) (string, error) {
	memory, time, threads := a.memory, a.time, a.threads
	if memory == 0 {
		memory, time, threads = argonDefaultMemory, argonDefaultTime, argonDefaultThreads
	}
	return argon2id.CreateHash(password, &argon2id.Params{
		Memory:      uint32(memory),
		Iterations:  uint32(time),
		Parallelism: uint8(threads),
		SaltLength:  16,
		KeyLength:   32,
	})
}

func (Argon2id) Verify(password, dbHash string, _ *string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, dbHash)
	if err != nil {
		return false, nil
	}
	return match, nil
}

func (Argon2id) DisplayName() string { return "Argon2id (Crypt)" }
func (Argon2id) Params() []Param     { return argonParams() }

// Argon2i parses the PHC string itself and derives the key with
// golang.org/x/crypto/argon2.
type Argon2i struct {
	memory, time, threads int
}

func newArgon2i(params []string) (Algorithm, error) {
	memory, time, threads, err := argonCosts(params)
	if err != nil {
		return nil, err
	}
	return Argon2i{memory: memory, time: time, threads: threads}, nil
}

func (a Argon2i) Hash(password string, _ *string) (string, error) {
	memory, time, threads := a.memory, a.time, a.threads
	if memory == 0 {
		memory, time, threads = argonDefaultMemory, argonDefaultTime, argonDefaultThreads
	}
	salt := randomBytes(16)
	key := argon2.Key([]byte(password), salt, uint32(time), uint32(memory), uint8(threads), 32)
	return fmt.Sprintf("$argon2i$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, time, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (Argon2i) Verify(password, dbHash string, _ *string) (bool, error) {
	memory, time, threads, salt, key, err := parseArgon2i(dbHash)
	if err != nil {
		return false, nil
	}
	computed := argon2.Key([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func (Argon2i) DisplayName() string { return "Argon2i (Crypt)" }
func (Argon2i) Params() []Param     { return argonParams() }

// parseArgon2i decodes a $argon2i$v=19$m=..,t=..,p=..$salt$key PHC string.
func parseArgon2i(hash string) (memory uint32, time uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2i" {
		err = ErrMalformedHash
		return
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		err = ErrMalformedHash
		return
	}
	if version != argon2.Version {
		err = ErrMalformedHash
		return
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		err = ErrMalformedHash
		return
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = ErrMalformedHash
		return
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		err = ErrMalformedHash
		return
	}
	return
}

// Blowfish is the bcrypt scheme with a configurable cost.
type Blowfish struct {
	cost int
}

func newBcrypt(params []string) (Algorithm, error) {
	cost, err := intParam(params, 0, 10)
	if err != nil {
		return nil, err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("crypto: bcrypt cost %d out of range", cost)
	}
	return Blowfish{cost: cost}, nil
}

func (b Blowfish) Hash(password string, _ *string) (string, error) {
	cost := b.cost
	if cost == 0 {
		cost = 10
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("crypto: bcrypt: %w", err)
	}
	return string(hash), nil
}

func (Blowfish) Verify(password, dbHash string, _ *string) (bool, error) {
	return bcrypt.CompareHashAndPassword([]byte(dbHash), []byte(password)) == nil, nil
}

func (Blowfish) DisplayName() string { return "Blowfish (Crypt)" }

func (Blowfish) Params() []Param {
	return []Param{{Kind: IntKind, Name: "Cost", Default: "10", Min: 4, Max: 31}}
}
