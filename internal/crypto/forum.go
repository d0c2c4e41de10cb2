package crypto

import (
	"strings"

	jkbcrypt "github.com/jameskeane/bcrypt"
)

// Joomla stores md5(password+salt) and the salt in one column separated by a
// colon. The salt is recovered from the stored hash, not from an external
// column.
type Joomla struct{}

func (Joomla) Hash(password string, _ *string) (string, error) {
	salt := randomString(32, alnumAlphabet)
	return md5Hex(password+salt) + ":" + salt, nil
}

func (Joomla) Verify(password, dbHash string, _ *string) (bool, error) {
	salt := ""
	if idx := strings.Index(dbHash, ":"); idx >= 0 {
		salt = dbHash[idx+1:]
	}
	var computed string
	if salt != "" {
		computed = md5Hex(password+salt) + ":" + salt
	} else {
		computed = md5Hex(password) + ":" + salt
	}
	return hashEqual(dbHash, computed), nil
}

func (Joomla) DisplayName() string { return "Joomla MD5 Encryption" }
func (Joomla) Params() []Param     { return nil }

// MyBB hashes md5(md5(salt)+md5(password)) against an external salt column.
type MyBB struct{}

func (MyBB) Hash(password string, salt *string) (string, error) {
	if salt == nil {
		return "", ErrSaltRequired
	}
	return md5Hex(md5Hex(*salt) + md5Hex(password)), nil
}

func (a MyBB) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (MyBB) DisplayName() string { return "MyBB" }
func (MyBB) Params() []Param     { return nil }

// MD5MD5Salt hashes md5(md5(password)+salt) against an external salt column.
type MD5MD5Salt struct{}

func (MD5MD5Salt) Hash(password string, salt *string) (string, error) {
	if salt == nil {
		return "", ErrSaltRequired
	}
	return md5Hex(md5Hex(password) + *salt), nil
}

func (a MD5MD5Salt) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (MD5MD5Salt) DisplayName() string { return "MD5 (MD5+Salt)" }
func (MD5MD5Salt) Params() []Param     { return nil }

// Redmine hashes sha1(salt+sha1(password)) against an external salt column.
type Redmine struct{}

func (Redmine) Hash(password string, salt *string) (string, error) {
	if salt == nil {
		return "", ErrSaltRequired
	}
	return sha1Hex(*salt + sha1Hex(password)), nil
}

func (a Redmine) Verify(password, dbHash string, salt *string) (bool, error) {
	return verifyRecompute(a, password, dbHash, salt)
}

func (Redmine) DisplayName() string { return "Redmine" }
func (Redmine) Params() []Param     { return nil }

// WCF2 is the WoltLab Community Framework 2.x double bcrypt: the password is
// bcrypt-hashed with the salt embedded in the stored hash, and the resulting
// hash string is bcrypt-hashed again with the same salt.
type WCF2 struct{}

const wcf2SettingLen = len("$2a$08$") + 22

func (WCF2) doubleCrypt(password, setting string) (string, error) {
	if len(setting) < wcf2SettingLen {
		return "", ErrMalformedHash
	}
	salt := setting[:wcf2SettingLen]
	inner, err := jkbcrypt.Hash(password, salt)
	if err != nil {
		return "", err
	}
	return jkbcrypt.Hash(inner, salt)
}

func (a WCF2) Hash(password string, _ *string) (string, error) {
	salt := "$2a$08$" + randomString(22, saltAlphabet)
	return a.doubleCrypt(password, salt)
}

func (a WCF2) Verify(password, dbHash string, _ *string) (bool, error) {
	computed, err := a.doubleCrypt(password, dbHash)
	if err != nil {
		return false, err
	}
	return hashEqual(dbHash, computed), nil
}

func (WCF2) DisplayName() string { return "WoltLab Community Framework 2.x" }
func (WCF2) Params() []Param     { return nil }
