package extraction

import (
	"testing"
)

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "empty string",
			raw:  "",
			want: []string{},
		},
		{
			name: "single keyword",
			raw:  "Photosynthesis",
			want: []string{"Photosynthesis"},
		},
		{
			name: "delimited keywords",
			raw:  "Photosynthesis  \nChlorophyll  \nGlucose",
			want: []string{"Photosynthesis", "Chlorophyll", "Glucose"},
		},
		{
			name: "entries are trimmed",
			raw:  "  Biology   \n  Cells ",
			want: []string{"Biology", "Cells"},
		},
		{
			name: "empty entries dropped",
			raw:  "Biology  \n  \nCells",
			want: []string{"Biology", "Cells"},
		},
		{
			name: "whitespace only",
			raw:  "   \n  ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitKeywords(tt.raw)

			if len(got) != len(tt.want) {
				t.Fatalf("SplitKeywords(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitKeywords(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{
			name: "array form",
			raw:  []interface{}{"Biology", "Cells"},
			want: []string{"Biology", "Cells"},
		},
		{
			name: "array with empties and non-strings",
			raw:  []interface{}{"Biology", "", 42, "Cells"},
			want: []string{"Biology", "Cells"},
		},
		{
			name: "delimited string form",
			raw:  "Biology  \nCells",
			want: []string{"Biology", "Cells"},
		},
		{
			name: "unexpected type",
			raw:  map[string]interface{}{"a": "b"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeKeywords(tt.raw)

			if len(got) != len(tt.want) {
				t.Fatalf("normalizeKeywords(%v) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("normalizeKeywords(%v)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}
