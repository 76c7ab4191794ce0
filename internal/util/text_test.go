package util

import (
	"reflect"
	"testing"
)

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  hello \n\t world  "); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("abcdefgh", 5); got != "abcd…" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("héllo wörld", 6); got != "héllo…" {
		t.Fatalf("rune-safe truncation broken: %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("zero width must yield empty, got %q", got)
	}
	if got := Truncate("abc", -5); got != "" {
		t.Fatalf("negative width must yield empty, got %q", got)
	}
	if got := Truncate("abc", 1); got != "a" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("Check #Go and #go plus #testing!")
	want := []string{"go", "testing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("ping @Alice and @bob, also @alice")
	want := []string{"alice", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
