package protocol

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// AuthKind discriminates the Authentication sum type from an
// AuthenticationRequest's first 4 bytes.
type AuthKind int

const (
	AuthOk AuthKind = iota
	AuthMD5Password
	AuthSasl
	AuthSaslContinue
	AuthSaslFinal
)

// Authentication is the parsed body of an 'R' AuthenticationRequest message.
type Authentication struct {
	Kind AuthKind

	MD5Salt [4]byte // AuthMD5Password

	Mechanisms []byte // AuthSasl: NUL-separated SASL mechanism names

	Iterations uint32 // AuthSaslContinue
	Nonce      []byte // AuthSaslContinue: r=...
	Salt       []byte // AuthSaslContinue: s=... (still base64-encoded)
	Payload    []byte // AuthSaslContinue: the full message body

	Verifier []byte // AuthSaslFinal: v=...
}

// ParseAuthentication decodes an AuthenticationRequest body. The first 4
// bytes big-endian select the subtype: 0 Ok, 5 MD5Password, 10 SASL,
// 11 SASLContinue, 12 SASLFinal. Any other value is
// UnexpectedValueFromBytes.
func ParseAuthentication(body []byte) (Authentication, error) {
	if len(body) < 4 {
		return Authentication{}, &UnexpectedValueError{Expected: "Authentication"}
	}
	n := binary.BigEndian.Uint32(body[:4])
	rest := body[4:]
	switch n {
	case 0:
		return Authentication{Kind: AuthOk}, nil
	case 5:
		if len(rest) != 4 {
			return Authentication{}, &UnexpectedValueError{Expected: "Authentication"}
		}
		var salt [4]byte
		copy(salt[:], rest)
		return Authentication{Kind: AuthMD5Password, MD5Salt: salt}, nil
	case 10:
		return Authentication{Kind: AuthSasl, Mechanisms: rest}, nil
	case 11:
		return parseSaslContinue(rest)
	case 12:
		return parseSaslFinal(rest)
	default:
		return Authentication{}, &UnexpectedValueError{Expected: "Authentication"}
	}
}

// parseSaslContinue splits rest on ',' into "key=value" fields: each token's
// first byte is the key, the second byte (the '=') is skipped, and the
// remainder is the value.
func parseSaslContinue(rest []byte) (Authentication, error) {
	var iterations *uint32
	var nonce, salt []byte
	for _, tok := range bytes.Split(rest, []byte{','}) {
		if len(tok) < 2 {
			continue
		}
		key, value := tok[0], tok[2:]
		switch key {
		case 'i':
			n, err := strconv.ParseUint(string(value), 10, 32)
			if err != nil {
				return Authentication{}, &UnexpectedValueError{Expected: "iterations"}
			}
			u := uint32(n)
			iterations = &u
		case 'r':
			nonce = value
		case 's':
			salt = value
		}
	}
	if iterations == nil {
		return Authentication{}, &NoInnerValueError{Field: "iterations"}
	}
	if nonce == nil {
		return Authentication{}, &NoInnerValueError{Field: "nonce"}
	}
	if salt == nil {
		return Authentication{}, &NoInnerValueError{Field: "salt"}
	}
	return Authentication{
		Kind:       AuthSaslContinue,
		Iterations: *iterations,
		Nonce:      nonce,
		Salt:       salt,
		Payload:    rest,
	}, nil
}

func parseSaslFinal(rest []byte) (Authentication, error) {
	var verifier []byte
	for _, tok := range bytes.Split(rest, []byte{','}) {
		if len(tok) >= 2 && tok[0] == 'v' {
			verifier = tok[2:]
		}
	}
	if verifier == nil {
		return Authentication{}, &NoInnerValueError{Field: "verifier"}
	}
	return Authentication{Kind: AuthSaslFinal, Verifier: verifier}, nil
}

// UnexpectedValueError reports malformed bytes that do not fit the type
// being decoded.
type UnexpectedValueError struct {
	Expected string
}

func (e *UnexpectedValueError) Error() string {
	return "protocol: unexpected value, expected " + e.Expected
}

func (e *UnexpectedValueError) Kind() string { return "UnexpectedValueFromBytes" }

// NoInnerValueError reports a missing comma-separated field in a
// SASL-Continue or SASL-Final payload.
type NoInnerValueError struct {
	Field string
}

func (e *NoInnerValueError) Error() string { return "protocol: missing field " + e.Field }

func (e *NoInnerValueError) Kind() string { return "NoInnerValue" }
