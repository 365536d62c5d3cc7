package dname

import "testing"

func TestParseString(t *testing.T) {
	cases := []string{"example.com", "example.com.", "www.example.com.", "."}
	for _, c := range cases {
		n, err := Parse(c)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c, err)
		}
		got := n.String()
		want := c
		if want[len(want)-1] != '.' {
			want += "."
		}
		if got != want {
			t.Errorf("Parse(%q).String() = %q, want %q", c, got, want)
		}
	}
}

func TestParseRejectsOverlong(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(string(long) + ".example.com")
	if err != ErrLabelTooLong {
		t.Fatalf("expected ErrLabelTooLong, got %v", err)
	}
}

func TestWireRoundTrip(t *testing.T) {
	n := MustParse("www.example.com")
	w := n.Wire()
	want := []byte{3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}
	if string(w) != string(want) {
		t.Fatalf("Wire() = %v, want %v", w, want)
	}
}

func TestCompareCanonicalOrder(t *testing.T) {
	// RFC 4034 appendix example ordering.
	names := []string{
		"example.",
		"a.example.",
		"yljkjljk.a.example.",
		"Z.a.example.",
		"zABC.a.EXAMPLE.",
		"z.example.",
		"\\001.z.example.",
		"*.z.example.",
		"\\200.z.example.",
	}
	for i := 0; i < len(names)-1; i++ {
		a := MustParse(names[i])
		b := MustParse(names[i+1])
		if c := Compare(a, b); c >= 0 {
			t.Errorf("Compare(%q, %q) = %d, want < 0", names[i], names[i+1], c)
		}
	}
}

func TestCompareCaseInsensitive(t *testing.T) {
	a := MustParse("WWW.Example.COM")
	b := MustParse("www.example.com")
	if Compare(a, b) != 0 {
		t.Errorf("expected case-insensitive equality")
	}
	if !a.Equal(b) {
		t.Errorf("expected Equal to ignore case")
	}
}

func TestIsSubdomainOf(t *testing.T) {
	apex := MustParse("example.com")
	sub := MustParse("www.example.com")
	if !sub.IsSubdomainOf(apex) {
		t.Errorf("expected www.example.com to be subdomain of example.com")
	}
	if !apex.IsSubdomainOf(apex) {
		t.Errorf("a name is a (non-strict) subdomain of itself")
	}
	if sub.StrictlyBelow(sub) {
		t.Errorf("name is not strictly below itself")
	}
	other := MustParse("example.org")
	if other.IsSubdomainOf(apex) {
		t.Errorf("example.org must not be subdomain of example.com")
	}
}

func TestWithSuffixReplaced(t *testing.T) {
	qname := MustParse("foo.sub.example.com")
	oldSuffix := MustParse("sub.example.com")
	newSuffix := MustParse("target.example.net")
	got, err := WithSuffixReplaced(qname, oldSuffix, newSuffix)
	if err != nil {
		t.Fatal(err)
	}
	if want := "foo.target.example.net."; got.String() != want {
		t.Errorf("got %q, want %q", got.String(), want)
	}
}

func TestIsWildcard(t *testing.T) {
	if !MustParse("*.example.com").IsWildcard() {
		t.Errorf("expected wildcard")
	}
	if MustParse("star.example.com").IsWildcard() {
		t.Errorf("did not expect wildcard")
	}
}
