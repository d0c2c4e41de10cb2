package crypto

import (
	"crypto/md5"
	"crypto/sha512"
	"strings"
)

// Phpass is the portable PHP password hash. The settings prefix encodes the
// iteration count: character 3 is the index of log2(count) in the crypt
// alphabet, characters 4..11 are the salt. The digest is stretched
// 2^count times over digest(previous || password), seeded with
// digest(salt || password), and appended to the 12-character settings prefix
// using a little-endian base64 variant.
type Phpass struct {
	iterationLog2 int
	digest        func([]byte) []byte
	truncate      int
}

func newPhpass(params []string) (Algorithm, error) {
	iter, err := intParam(params, 0, 8)
	if err != nil {
		return nil, err
	}
	return Phpass{iterationLog2: iter, digest: md5Raw}, nil
}

func md5Raw(b []byte) []byte {
	sum := md5.Sum(b)
	return sum[:]
}

func sha512Raw(b []byte) []byte {
	sum := sha512.Sum512(b)
	return sum[:]
}

// crypt computes the full hash for a password under the given settings
// string. An unusable settings string yields "".
func (p Phpass) crypt(password, setting string) string {
	if len(setting) < 12 {
		return ""
	}
	countLog2 := strings.IndexByte(saltAlphabet, setting[3])
	if countLog2 < 7 || countLog2 > 30 {
		return ""
	}
	count := 1 << uint(countLog2)

	salt := setting[4:12]
	hash := p.digest([]byte(salt + password))
	for i := 0; i < count; i++ {
		hash = p.digest(append(hash, password...))
	}

	out := setting[:12] + encode64(hash, len(hash))
	if p.truncate > 0 && len(out) > p.truncate {
		out = out[:p.truncate]
	}
	return out
}

func (p Phpass) genSalt() string {
	count := p.iterationLog2 + 5
	if count > 30 {
		count = 30
	}
	return "$P$" + string(saltAlphabet[count]) + encode64(randomBytes(6), 6)
}

func (p Phpass) Hash(password string, _ *string) (string, error) {
	hash := p.crypt(password, p.genSalt())
	if hash == "" {
		return "", ErrMalformedHash
	}
	return hash, nil
}

func (p Phpass) Verify(password, dbHash string, _ *string) (bool, error) {
	computed := p.crypt(password, dbHash)
	if computed == "" {
		return false, nil
	}
	return hashEqual(dbHash, computed), nil
}

func (Phpass) DisplayName() string { return "Portable PHP password" }

func (Phpass) Params() []Param {
	return []Param{{Kind: IntKind, Name: "Iterations (log2)", Default: "8", Min: 4, Max: 31}}
}

// encode64 is the phpass little-endian base64 variant: three input bytes are
// emitted least-significant six bits first.
func encode64(input []byte, count int) string {
	var out strings.Builder
	i := 0
	for i < count {
		value := uint32(input[i])
		i++
		out.WriteByte(saltAlphabet[value&0x3f])
		if i < count {
			value |= uint32(input[i]) << 8
		}
		out.WriteByte(saltAlphabet[(value>>6)&0x3f])
		if i >= count {
			break
		}
		i++
		if i < count {
			value |= uint32(input[i]) << 16
		}
		out.WriteByte(saltAlphabet[(value>>12)&0x3f])
		if i >= count {
			break
		}
		i++
		out.WriteByte(saltAlphabet[(value>>18)&0x3f])
	}
	return out.String()
}

// Drupal7 is the phpass derivative used by Drupal 7: SHA-512 instead of MD5
// and the result truncated to 55 characters.
type Drupal7 struct {
	Phpass
}

func (d Drupal7) Hash(password string, salt *string) (string, error) {
	return d.phpass().Hash(password, salt)
}

func (d Drupal7) Verify(password, dbHash string, salt *string) (bool, error) {
	return d.phpass().Verify(password, dbHash, salt)
}

func (d Drupal7) phpass() Phpass {
	p := d.Phpass
	if p.iterationLog2 == 0 {
		p.iterationLog2 = 8
	}
	p.digest = sha512Raw
	p.truncate = 55
	return p
}

func (Drupal7) DisplayName() string { return "Drupal 7" }
func (Drupal7) Params() []Param     { return nil }
