package textenc

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecode_UTF8(t *testing.T) {
	got := Decode([]byte("line one\r\nline two\rline three"), "")
	if want := "line one\nline two\nline three"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	got := Decode([]byte("\xEF\xBB\xBF---\ntitle: x\n---\n"), "")
	if !strings.HasPrefix(got, "---\n") {
		t.Errorf("BOM not stripped: %q", got)
	}
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	got := Decode([]byte{0xFF, 0xFE, 'h', 0, 'i', 0, '\r', 0, '\n', 0}, "")
	if got != "hi\n" {
		t.Errorf("got %q, want %q", got, "hi\n")
	}
}

func TestDecode_DeclaredCharset(t *testing.T) {
	got := Decode([]byte("caf\xe9"), "ISO-8859-1")
	if got != "café" {
		t.Errorf("got %q, want %q", got, "café")
	}
}

func TestDecode_DetectsLegacyEncoding(t *testing.T) {
	data := []byte("Le caf\xe9 du matin est servi avec une tartine, puis le caf\xe9 de midi.")
	got := Decode(data, "")
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
	if !strings.HasPrefix(got, "Le caf") {
		t.Errorf("got %q", got)
	}
}

func TestLookup(t *testing.T) {
	for _, label := range []string{"UTF-8", "latin1", "Windows-1252", "shift_jis", "Big5"} {
		if Lookup(label) == nil {
			t.Errorf("Lookup(%q) = nil", label)
		}
	}
	if Lookup("klingon") != nil {
		t.Error("Lookup(klingon) should be nil")
	}
}
