package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// saltAlphabet is the 64-character alphabet used by crypt(3) salts and the
// phpass base64 encoding.
const saltAlphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// alnumAlphabet is used for the random salts of the SSHA and Joomla schemes.
const alnumAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// randomString draws length characters from alphabet using crypto/rand.
func randomString(length int, alphabet string) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto: rand.Read: %v", err))
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

// randomBytes returns n bytes from crypto/rand.
func randomBytes(n int) []byte {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto: rand.Read: %v", err))
	}
	return buf
}

// hexToBase64 re-encodes a hex digest in base64, as Courier does.
func hexToBase64(h string) (string, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("crypto: hexToBase64: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
