package slice

import "testing"

func TestCursor_RoundTrip(t *testing.T) {
	for _, k := range []Key{1, 48, 1 << 40} {
		got, ok := DecodeCursor(EncodeCursor(k))
		if !ok || got != k {
			t.Fatalf("round trip %d: got %d ok=%v", k, got, ok)
		}
	}
}

func TestCursor_FailOpen(t *testing.T) {
	cases := []string{"", "   ", "abc", "12x", "0", "-5", "9223372036854775808", "1.5"}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			if k, ok := DecodeCursor(raw); ok {
				t.Fatalf("expected no cursor for %q, got %d", raw, k)
			}
		})
	}
}

func TestCursor_TrimsWhitespace(t *testing.T) {
	k, ok := DecodeCursor(" 16 ")
	if !ok || k != 16 {
		t.Fatalf("got %d ok=%v", k, ok)
	}
}

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"", Descending, true},
		{"desc", Descending, true},
		{"DESC", Descending, true},
		{" asc ", Ascending, true},
		{"sideways", Descending, false},
	}
	for _, tc := range cases {
		got, ok := ParseDirection(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseDirection(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if Ascending.SQL() != "ASC" || Descending.SQL() != "DESC" {
		t.Fatalf("unexpected SQL keywords")
	}
}
