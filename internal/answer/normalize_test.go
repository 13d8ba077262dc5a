package answer

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Café  ", "cafe"},
		{"El Ñandú", "el nandu"},
		{"¡Miguel de Cervantes!", "miguel de cervantes"},
		{"Juan-Carlos   I", "juan carlos i"},
		{"ÁÉÍÓÚÜ", "aeiouu"},
		{"...", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
