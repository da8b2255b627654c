package crypto

import (
	"strings"
	"testing"
)

func TestDigestWithPrefix(t *testing.T) {
	got := DigestWithPrefix([]byte("abc"))
	want := "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("unexpected digest: %s", got)
	}
}

func TestCanonicalDigestIgnoresKeyOrder(t *testing.T) {
	a, err := CanonicalDigest(map[string]any{"a": 1, "b": []string{"x", "y"}})
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	b, err := CanonicalDigest(map[string]any{"b": []string{"x", "y"}, "a": 1})
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal digests, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") {
		t.Fatalf("expected sha256 prefix, got %s", a)
	}
}

func TestCanonicalDigestPropagatesErrors(t *testing.T) {
	if _, err := CanonicalDigest(map[string]any{"score": 0.5}); err != ErrFloatNotAllowed {
		t.Fatalf("expected ErrFloatNotAllowed, got %v", err)
	}
}

func TestJSONViewRejectsFloats(t *testing.T) {
	type sample struct {
		Name  string  `json:"name"`
		Ratio float64 `json:"ratio"`
	}
	view, err := JSONView(sample{Name: "x", Ratio: 0.5})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if _, err := Canonicalize(view); err != ErrFloatNotAllowed {
		t.Fatalf("expected ErrFloatNotAllowed, got %v", err)
	}

	view, err = JSONView(sample{Name: "x", Ratio: 2})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	got, err := Canonicalize(view)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `{"name":"x","ratio":2}` {
		t.Fatalf("unexpected canonical form: %s", got)
	}
}
