package language

import (
	"errors"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"english", "en"},
		{"French", "fr"},
		{"xy", "xy"},
		{"xyz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"fr", "fr", false},
		{" Spanish ", "es", false},
		{"deu", "de", false},
		{"AUTO", "auto", false},
		{"pt-BR", "pt-BR", false},
		{"pt", "pt", false},
		{"", "", true},
		{"not a language", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownLanguage) {
					t.Fatalf("Normalize(%q) error = %v, want ErrUnknownLanguage", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"fra", "French"},
		{"auto", "Auto-detect"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil", nil, nil},
		{"dedup keeps order", []string{"fr", "es", "fra"}, []string{"fr", "es"}},
		{"word forms", []string{"German", "english"}, []string{"de", "en"}},
		{"blank skipped", []string{" ", "ja"}, []string{"ja"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeList(tt.input)
			if err != nil {
				t.Fatalf("NormalizeList(%v) returned error: %v", tt.input, err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("NormalizeList(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("NormalizeList(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestNormalizeListRejectsAutoTarget(t *testing.T) {
	if _, err := NormalizeList([]string{"fr", "auto"}); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected auto target to be rejected, got %v", err)
	}
}
