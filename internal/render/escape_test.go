package render

import (
	"strings"
	"testing"
)

func TestEscapeReservedSet(t *testing.T) {
	t.Parallel()
	const set = "_*[]()~`>#+-=|{}.!"
	got := Escape(set)
	for _, r := range set {
		want := `\` + string(r)
		if !strings.Contains(got, want) {
			t.Fatalf("Escape(%q) = %q, missing %q", set, got, want)
		}
	}
	if len(got) != 2*len(set) {
		t.Fatalf("Escape(%q) = %q, want every char prefixed exactly once", set, got)
	}
}

func TestEscapePassthrough(t *testing.T) {
	t.Parallel()
	const in = "plain text 123 with spaces and % and emoji 🚀"
	if got := Escape(in); got != in {
		t.Fatalf("Escape(%q) = %q, want unchanged", in, got)
	}
}

func TestEscapeMixed(t *testing.T) {
	t.Parallel()
	if got, want := Escape("v1.2 (beta)!"), `v1\.2 \(beta\)\!`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeNotIdempotent(t *testing.T) {
	t.Parallel()
	once := Escape("a.b")
	twice := Escape(once)
	if once != `a\.b` {
		t.Fatalf("once = %q", once)
	}
	if twice != `a\\.b` {
		t.Fatalf("twice = %q, want the backslash untouched and the dot re-escaped", twice)
	}
}
