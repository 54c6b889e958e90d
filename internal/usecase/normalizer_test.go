package usecase

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "lowercases",
			input: "Sugar, Palm OIL",
			want:  "sugar palm oil",
		},
		{
			name:  "collapses punctuation runs to single spaces",
			input: "wheat flour (enriched), salt;  yeast.",
			want:  "wheat flour enriched salt yeast",
		},
		{
			name:  "trims leading and trailing whitespace",
			input: "  milk  ",
			want:  "milk",
		},
		{
			name:  "already normalized is unchanged",
			input: "sugar palm oil hazelnuts milk",
			want:  "sugar palm oil hazelnuts milk",
		},
		{
			name:  "only punctuation",
			input: "---!!!",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Sugar, palm oil, HAZELNUTS (13%), skimmed MILK powder",
		"may contain traces of peanuts",
		"  Wheat   flour!!! ",
		"café au lait",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNgrams(t *testing.T) {
	tokens := []string{"textured", "vegetable", "protein"}

	bigrams := ngrams(tokens, 2)
	if len(bigrams) != 2 || bigrams[0] != "textured vegetable" || bigrams[1] != "vegetable protein" {
		t.Errorf("ngrams(2) = %v, want [textured vegetable, vegetable protein]", bigrams)
	}

	trigrams := ngrams(tokens, 3)
	if len(trigrams) != 1 || trigrams[0] != "textured vegetable protein" {
		t.Errorf("ngrams(3) = %v, want [textured vegetable protein]", trigrams)
	}

	if got := ngrams(tokens, 4); got != nil {
		t.Errorf("ngrams(4) = %v, want nil", got)
	}
}
