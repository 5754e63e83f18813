package secrets

import (
	"testing"
)

func TestSealOpen(t *testing.T) {
	masterKey := []byte("anotherTestMasterKey")
	plaintext := "rw-community-42"

	sealed, err := seal(masterKey, "rack3-rw", plaintext)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if sealed == plaintext {
		t.Fatalf("sealed value should not equal plaintext")
	}

	opened, err := open(masterKey, "rack3-rw", sealed)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if opened != plaintext {
		t.Errorf("expected %q, got %q", plaintext, opened)
	}
}

func TestOpenWithOtherIDFails(t *testing.T) {
	masterKey := []byte("testmasterkey")

	sealed, err := seal(masterKey, "rack3-rw", "secret")
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := open(masterKey, "rack4-rw", sealed); err == nil {
		t.Errorf("a secret sealed for one ID should not open under another")
	}
}

func TestOpenShortCiphertext(t *testing.T) {
	if _, err := open([]byte("k"), "id", "00ff"); err != errCiphertextTooShort {
		t.Errorf("expected errCiphertextTooShort, got %v", err)
	}
}
