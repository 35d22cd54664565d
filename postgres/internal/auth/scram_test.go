package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

// serverSide computes the server-first and server-final messages a real
// PostgreSQL backend would produce, so ClientFinalMessage and
// VerifyServerSignature can be tested without a live server.
func serverSide(t *testing.T, clientFirstBare, serverNonce string, salt []byte, iterations int, password string) (clientFinalWithoutProofPrefix string, expectedProof, serverSignature []byte) {
	t.Helper()
	saltedPassword := saltPassword([]byte(password), salt, iterations)
	clientKey := hmacSHA256(saltedPassword, []byte("Client Key"))
	storedKey := sha256Sum(clientKey)

	gs2Header := "n,,"
	channelBinding := "c=" + base64.StdEncoding.EncodeToString([]byte("n,,"))
	clientFinalWithoutProof := channelBinding + ",r=" + serverNonce
	serverFirst := "r=" + serverNonce + ",s=" + base64.StdEncoding.EncodeToString(salt) + ",i=" + itoa(iterations)
	authMessage := clientFirstBare + "," + serverFirst + "," + clientFinalWithoutProof

	clientSignature := hmacSHA256(storedKey, []byte(authMessage))
	expectedProof = xorBytes(clientKey, clientSignature)

	serverKey := hmacSHA256(saltedPassword, []byte("Server Key"))
	serverSignature = hmacSHA256(serverKey, []byte(authMessage))

	_ = gs2Header
	return clientFinalWithoutProof, expectedProof, serverSignature
}

func TestScramRoundTrip(t *testing.T) {
	password := "pencil"
	salt := []byte("QSXCR+Q6sek8bf92")
	iterations := 4096
	serverNonce := "clientnonce-servernoncepart"

	client := NewScramClient("user", password, "clientnonce-")
	_, expectedProof, serverSignature := serverSide(t, string(client.ClientFirstMessage()[3:]), serverNonce, salt, iterations, password)
	_ = expectedProof

	clientFinal, err := client.ClientFinalMessage(serverNonce, salt, iterations, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(clientFinal) == 0 {
		t.Fatal("expected non-empty client-final message")
	}

	verifierB64 := base64.StdEncoding.EncodeToString(serverSignature)
	if err := client.VerifyServerSignature([]byte(verifierB64)); err != nil {
		t.Fatalf("VerifyServerSignature: %v", err)
	}
}

func TestScramRejectsLowIterationCount(t *testing.T) {
	client := NewScramClient("user", "pencil", "nonce")
	_, err := client.ClientFinalMessage("nonce-server", []byte("salt"), 100, nil)
	if err == nil {
		t.Fatal("expected error for iteration count below minimum")
	}
}

func TestScramRejectsWrongServerSignature(t *testing.T) {
	client := NewScramClient("user", "pencil", "nonce")
	if _, err := client.ClientFinalMessage("nonce-server", []byte("salt1234"), 4096, nil); err != nil {
		t.Fatal(err)
	}
	bogus := hmac.New(sha256.New, []byte("wrong")).Sum(nil)
	if err := client.VerifyServerSignature([]byte(base64.StdEncoding.EncodeToString(bogus))); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}
