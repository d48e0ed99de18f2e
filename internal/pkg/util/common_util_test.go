package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtractFirstURL(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{"check this out https://example.com/page?a=1 nice", "https://example.com/page?a=1"},
		{"http://a.io and https://b.io", "http://a.io"},
		{"no links here", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := ExtractFirstURL(c.content); got != c.want {
			t.Errorf("ExtractFirstURL(%q) = %q, want %q", c.content, got, c.want)
		}
	}
}

func TestGetSafeContentType(t *testing.T) {
	// JPEG 魔数
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 32)...)
	ct, err := GetSafeContentType(bytes.NewReader(jpeg))
	if err != nil {
		t.Fatalf("GetSafeContentType failed: %v", err)
	}
	if ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}

	ct, err = GetSafeContentType(strings.NewReader("plain old text"))
	if err != nil {
		t.Fatalf("GetSafeContentType failed: %v", err)
	}
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain prefix, got %s", ct)
	}
}
