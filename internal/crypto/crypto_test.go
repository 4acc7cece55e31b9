package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpen(t *testing.T) {
	box, err := NewBox("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	line, err := box.Seal([]byte(`{"op":"PING"}`))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.ContainsAny(line, "\n{") {
		t.Fatalf("sealed frame leaks plaintext or breaks framing: %q", line)
	}

	// A second box from the same token opens it.
	other, _ := NewBox("s3cret")
	frame, err := other.Open(line)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(frame) != `{"op":"PING"}` {
		t.Fatalf("got %q", frame)
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	box, _ := NewBox("s3cret")
	a, _ := box.Seal([]byte("same"))
	b, _ := box.Seal([]byte("same"))
	if bytes.Equal(a, b) {
		t.Fatalf("identical frames sealed to identical lines")
	}
}

func TestOpenRejects(t *testing.T) {
	one, _ := NewBox("one")
	two, _ := NewBox("two")
	line, _ := one.Seal([]byte("hello"))

	for name, in := range map[string][]byte{
		"wrong token": line,
		"not base64":  []byte("{not base64}"),
		"too short":   []byte("c2hvcnQ="),
	} {
		if _, err := two.Open(in); !errors.Is(err, ErrDecrypt) {
			t.Errorf("%s: expected ErrDecrypt, got %v", name, err)
		}
	}
}

func TestEmptyTokenIsPlaintext(t *testing.T) {
	box, err := NewBox("")
	if err != nil || box != nil {
		t.Fatalf("expected nil box, got %v, %v", box, err)
	}
	if box.Encrypted() {
		t.Fatalf("nil box must not report encryption")
	}
	line, _ := box.Seal([]byte("plain"))
	frame, _ := box.Open(line)
	if string(line) != "plain" || string(frame) != "plain" {
		t.Fatalf("nil box altered the frame: %q %q", line, frame)
	}
}
