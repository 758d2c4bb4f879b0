package domain

import (
	"testing"
)

// FuzzParseNationalID checks that parsing never panics and that any accepted
// value is canonical and round-trips.
func FuzzParseNationalID(f *testing.F) {
	f.Add("")
	f.Add("12345678901")
	f.Add("123.456.789-01")
	f.Add("'; DROP TABLE accounts;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("1234567890\x001")

	f.Fuzz(func(t *testing.T, input string) {
		nid, err := ParseNationalID(input)
		if err != nil {
			return
		}
		if len(nid) != NationalIDLength {
			t.Fatalf("accepted non-canonical length %d", len(nid))
		}
		for _, r := range nid {
			if r < '0' || r > '9' {
				t.Fatalf("accepted non-digit %q", r)
			}
		}
		again, err := ParseNationalID(nid.String())
		if err != nil || again != nid {
			t.Fatalf("canonical value failed round-trip: %v", err)
		}
	})
}
