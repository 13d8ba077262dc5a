package tui

import "testing"

func TestWrapText(t *testing.T) {
	got := wrapText("uno dos tres cuatro", 8)
	want := "uno dos\ntres\ncuatro"
	if got != want {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
}

func TestWrapTextZeroWidth(t *testing.T) {
	if got := wrapText("hola", 0); got != "hola" {
		t.Fatalf("expected input unchanged, got %q", got)
	}
}

func TestWrapTextLongWord(t *testing.T) {
	got := wrapText("anticonstitucionalmente sí", 10)
	want := "anticonstitucionalmente\nsí"
	if got != want {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}
}
