package postgres

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
)

// md5PasswordHash computes PostgreSQL's md5 password response:
// "md5" + hex(md5(hex(md5(password+user))+salt)).
func md5PasswordHash(user, password string, salt [4]byte) string {
	inner := hex.EncodeToString(md5Sum([]byte(password + user)))
	outer := md5Sum(append([]byte(inner), salt[:]...))
	return "md5" + hex.EncodeToString(outer)
}

func md5Sum(p []byte) []byte {
	sum := md5.Sum(p)
	return sum[:]
}

func base64RawURL(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
