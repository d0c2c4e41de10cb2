package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/ripemd160"
)

// hmacDigests maps the configurable digest choice to its constructor.
// ripemd160 is the historical default of the PHP implementation.
var hmacDigests = map[string]func() hash.Hash{
	"md5":       md5.New,
	"sha1":      sha1.New,
	"sha256":    sha256.New,
	"sha512":    sha512.New,
	"ripemd160": ripemd160.New,
}

const defaultHMACDigest = "ripemd160"

// HMAC computes hex(hmac_digest(key=salt, message=password)). A missing salt
// degrades to an empty key, matching the PHP behaviour.
type HMAC struct {
	digest string
}

func newHMAC(params []string) (Algorithm, error) {
	digest := strParam(params, 0, defaultHMACDigest)
	if _, ok := hmacDigests[digest]; !ok {
		return nil, fmt.Errorf("crypto: unsupported hmac digest %q", digest)
	}
	return HMAC{digest: digest}, nil
}

func (h HMAC) Hash(password string, salt *string) (string, error) {
	key := ""
	if salt != nil {
		key = *salt
	}
	mac := hmac.New(hmacDigests[h.digest], []byte(key))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (h HMAC) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(h, password, dbHash, salt)
}

func (HMAC) DisplayName() string { return "Hash HMAC" }

func (HMAC) Params() []Param {
	choices := make([]string, 0, len(hmacDigests))
	for name := range hmacDigests {
		choices = append(choices, name)
	}
	sort.Strings(choices)
	return []Param{{
		Kind:    ChoiceKind,
		Name:    "Hashing algorithm",
		Default: defaultHMACDigest,
		Choices: choices,
	}}
}
