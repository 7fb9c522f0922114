package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Palo Alto Networks", "palo alto networks"},
		{"trims whitespace", "  Check Point  ", "check point"},
		{"keeps punctuation and suffixes", "Check Point Software Technologies Ltd.", "check point software technologies ltd."},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"Intel Corporation", "  CYBER  ", "", "ltd."} {
		assert.Equal(t, Normalize(s), Normalize(Normalize(s)))
	}
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"exact", "Intel", "Intel", true},
		{"containment forward", "Palo Alto Networks Inc", "Palo Alto Networks", true},
		{"containment reverse", "Check Point", "Check Point Software Technologies Ltd", true},
		{"case insensitive", "INTEL", "intel corporation", true},
		{"unrelated", "Intel", "Wiz", false},
		// Known tradeoff: short names match unrelated longer names.
		{"short name false positive", "Cyber", "CyberArk Software", true},
		{"empty never matches", "", "Intel", false},
		{"both empty", "", "", false},
		{"whitespace only", "   ", "Intel", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NamesMatch(tt.a, tt.b))
		})
	}
}

func TestNamesMatch_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Intel", "Intel Corporation"},
		{"Check Point", "Wiz"},
		{"", "Intel"},
		{"Cyber", "CyberArk"},
	}
	for _, p := range pairs {
		assert.Equal(t, NamesMatch(p[0], p[1]), NamesMatch(p[1], p[0]),
			"NamesMatch(%q,%q) should be symmetric", p[0], p[1])
	}
}
