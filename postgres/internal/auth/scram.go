// Package auth implements the client side of SCRAM-SHA-256 (RFC 5802) as
// used by PostgreSQL's SASL authentication.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/secure/precis"
)

const minIterations = 4096

// ScramClient drives one SCRAM-SHA-256 handshake's client side, holding
// the state needed to compute the final proof and verify the server's
// signature once the server's challenge arrives.
type ScramClient struct {
	user            string
	password        string
	clientNonce     string
	clientFirstBare string
	saltedPassword  []byte
	authMessage     string
}

// NewScramClient starts a handshake for user/password, with clientNonce
// supplied by the caller's injected RNG. password is normalized with
// SASLprep (RFC 4013) before use, per RFC 5802 §5.1.
func NewScramClient(user, password, clientNonce string) *ScramClient {
	c := &ScramClient{user: user, password: saslPrep(password), clientNonce: clientNonce}
	c.clientFirstBare = "n=" + user + ",r=" + clientNonce
	return c
}

// saslPrep normalizes password per RFC 4013's SASLprep profile (used here
// via precis.OpaqueString, the modern replacement RFC 8264 names for the
// deprecated stringprep SASLprep profile). Passwords containing characters
// SASLprep can't normalize are sent unmodified, the same fallback RFC 5802
// §5.1 mandates.
func saslPrep(password string) string {
	if prepped, err := precis.OpaqueString.String(password); err == nil {
		return prepped
	}
	return password
}

// ClientFirstMessage returns the GS2 header plus client-first-bare, sent as
// the SASLInitialResponse payload.
func (c *ScramClient) ClientFirstMessage() []byte {
	return []byte("n,," + c.clientFirstBare)
}

// channelBindingHeader selects the GS2 channel-binding flag: "p=tls-server-
// end-point" when a binding hash is available, "n" otherwise. This client
// never advertises "y" (client-supports-but-server-doesn't) since it only
// initiates SCRAM-SHA-256, not the -PLUS variant, when no TLS binding
// exists.
func channelBindingHeader(tlsServerEndPoint []byte) string {
	if tlsServerEndPoint != nil {
		return "p=tls-server-end-point"
	}
	return "n"
}

// ClientFinalMessage verifies the server-first iteration count and computes
// client-final, binding to tlsServerEndPoint when the connection used TLS.
// Returns the bytes to send as SASLResponse.
func (c *ScramClient) ClientFinalMessage(serverNonce string, salt []byte, iterations int, tlsServerEndPoint []byte) ([]byte, error) {
	if iterations < minIterations {
		return nil, fmt.Errorf("auth: iteration count %d below minimum %d", iterations, minIterations)
	}
	gs2Header := []byte(channelBindingHeader(tlsServerEndPoint) + ",,")
	cbindInput := gs2Header
	if tlsServerEndPoint != nil {
		cbindInput = append(append([]byte{}, gs2Header...), tlsServerEndPoint...)
	}
	channelBinding := "c=" + base64.StdEncoding.EncodeToString(cbindInput)
	clientFinalWithoutProof := channelBinding + ",r=" + serverNonce

	serverFirst := "r=" + serverNonce + ",s=" + base64.StdEncoding.EncodeToString(salt) + ",i=" + itoa(iterations)
	c.authMessage = c.clientFirstBare + "," + serverFirst + "," + clientFinalWithoutProof

	c.saltedPassword = saltPassword([]byte(c.password), salt, iterations)
	clientKey := hmacSHA256(c.saltedPassword, []byte("Client Key"))
	storedKey := sha256Sum(clientKey)
	clientSignature := hmacSHA256(storedKey, []byte(c.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	msg := clientFinalWithoutProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	return []byte(msg), nil
}

// VerifyServerSignature checks the server's SaslFinal verifier (v=...)
// against the expected ServerSignature computed from the negotiated
// SaltedPassword and AuthMessage.
func (c *ScramClient) VerifyServerSignature(verifier []byte) error {
	serverKey := hmacSHA256(c.saltedPassword, []byte("Server Key"))
	serverSignature := hmacSHA256(serverKey, []byte(c.authMessage))
	got := base64.StdEncoding.EncodeToString(serverSignature)
	if subtle.ConstantTimeCompare([]byte(got), verifier) != 1 {
		return fmt.Errorf("auth: server signature mismatch")
	}
	return nil
}

func saltPassword(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, sha256.Size, sha256.New)
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Sum(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
