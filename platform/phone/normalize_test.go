package phone

import "testing"

func TestNormalizeAddsCountryPrefix(t *testing.T) {
	got := Normalize("11987654321")
	if got != "+5511987654321" {
		t.Fatalf("expected +5511987654321, got %s", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first := Normalize("11987654321")
	second := Normalize(first)
	if first != second {
		t.Fatalf("normalization not idempotent: %s != %s", first, second)
	}

	if Normalize("+5511987654321") != "+5511987654321" {
		t.Fatal("already-normalized number should be returned unchanged")
	}
}

func TestNormalizeStripsFormatting(t *testing.T) {
	got := Normalize("(11) 98765-4321")
	if got != "+5511987654321" {
		t.Fatalf("expected formatting characters to be stripped, got %s", got)
	}
}

func TestNormalizeLandline(t *testing.T) {
	got := Normalize("1133334444")
	if got != "+551133334444" {
		t.Fatalf("expected +551133334444, got %s", got)
	}
}

func TestNormalizeKeepsExistingCountryPrefix(t *testing.T) {
	got := Normalize("5511987654321")
	if got != "+5511987654321" {
		t.Fatalf("expected +5511987654321, got %s", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if Normalize("") != "" {
		t.Fatal("empty input should normalize to empty string")
	}
	if Normalize("abc") != "" {
		t.Fatal("input without digits should normalize to empty string")
	}
}

func TestNormalizeUnrecognizedNumberKeepsDigits(t *testing.T) {
	got := Normalize("12345")
	if got != "+12345" {
		t.Fatalf("expected best-effort +12345, got %s", got)
	}
}
