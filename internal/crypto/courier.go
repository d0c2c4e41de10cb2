package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// The Courier MTA prefixes each hash with a scheme tag and stores the raw
// digest base64-encoded (MD5RAW keeps the hex form).

type CourierMD5 struct{}

func (CourierMD5) Hash(password string, _ *string) (string, error) {
	b64, err := hexToBase64(md5Hex(password))
	if err != nil {
		return "", err
	}
	return "{MD5}" + b64, nil
}

func (a CourierMD5) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (CourierMD5) DisplayName() string { return "Courier base64-encoded MD5" }
func (CourierMD5) Params() []Param     { return nil }

type CourierMD5Raw struct{}

func (CourierMD5Raw) Hash(password string, _ *string) (string, error) {
	return "{MD5RAW}" + md5Hex(password), nil
}

func (a CourierMD5Raw) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (CourierMD5Raw) DisplayName() string { return "Courier hexadecimal MD5" }
func (CourierMD5Raw) Params() []Param     { return nil }

type CourierSHA1 struct{}

func (CourierSHA1) Hash(password string, _ *string) (string, error) {
	sum := sha1.Sum([]byte(password))
	b64, err := hexToBase64(hex.EncodeToString(sum[:]))
	if err != nil {
		return "", err
	}
	return "{SHA}" + b64, nil
}

func (a CourierSHA1) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (CourierSHA1) DisplayName() string { return "Courier base64-encoded SHA1" }
func (CourierSHA1) Params() []Param     { return nil }

type CourierSHA256 struct{}

func (CourierSHA256) Hash(password string, _ *string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	b64, err := hexToBase64(hex.EncodeToString(sum[:]))
	if err != nil {
		return "", err
	}
	return "{SHA256}" + b64, nil
}

func (a CourierSHA256) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (CourierSHA256) DisplayName() string { return "Courier base64-encoded SHA256" }
func (CourierSHA256) Params() []Param     { return nil }
