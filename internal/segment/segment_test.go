package segment

import (
	"reflect"
	"testing"
)

func TestSegmenter_Split(t *testing.T) {
	tests := []struct {
		name string
		lang string
		text string
		want []string
	}{
		{
			name: "basic",
			lang: "en",
			text: "Hello world. This is Mr. Smith! Is it? yes.",
			want: []string{"Hello world.", "This is Mr. Smith!", "Is it? yes."},
		},
		{
			name: "closing quote stays with sentence",
			lang: "en",
			text: `He said "Stop." Then he left.`,
			want: []string{`He said "Stop."`, "Then he left."},
		},
		{
			name: "french abbreviation and initial",
			lang: "fr",
			text: "M. Dupont arrive. J. Martin le suit.",
			want: []string{"M. Dupont arrive.", "J. Martin le suit."},
		},
		{
			name: "no terminal punctuation",
			lang: "en",
			text: "  just a fragment  ",
			want: []string{"just a fragment"},
		},
		{
			name: "ellipsis",
			lang: "en",
			text: "Wait... What now?",
			want: []string{"Wait...", "What now?"},
		},
		{
			name: "blank",
			lang: "en",
			text: " \n\t ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.lang).Split(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"Hello, world!", 2},
		{"It costs 3.50 today.", 4},
	}
	for _, tt := range tests {
		if got := CountTokens(tt.text); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words("Le chat, le chien.")
	want := []string{"Le", "chat", "le", "chien"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %q, want %q", got, want)
	}
	if Words("  ...  ") != nil {
		t.Error("punctuation only should yield no words")
	}
}

func TestNew_unknownLanguage(t *testing.T) {
	s := New("xx")
	if !s.isAbbreviation("mme") || !s.isAbbreviation("mrs") {
		t.Error("unknown language should know every abbreviation")
	}
	if s.Lang() != "xx" {
		t.Errorf("Lang = %q", s.Lang())
	}
}

func TestNormalize(t *testing.T) {
	decomposed := "café  au\n lait "
	if got := Normalize(decomposed); got != "caf\u00e9 au lait" {
		t.Errorf("Normalize = %q", got)
	}
}
