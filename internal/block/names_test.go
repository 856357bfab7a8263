package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNameComparerCaseInsensitive(t *testing.T) {
	n := NewDefaultNameComparer()

	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"same", "foo", "foo", true},
		{"case_only", "Foo", "fOO", true},
		{"different", "foo", "bar", false},
		{"suffix", "foo", "foo2", false},
		{"unicode_case", "größe", "GRÖSSE", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, n.Equal(tt.a, tt.b))
		})
	}
}

func TestNameComparerNFCEquivalence(t *testing.T) {
	n := NewDefaultNameComparer()
	// composed vs decomposed accents compare equal
	assert.True(t, n.Equal("caf\u00e9", "cafe\u0301"))
}

func TestNameComparerOrdering(t *testing.T) {
	n := NewDefaultNameComparer()
	assert.Equal(t, 0, n.Compare("abc", "ABC"))
	assert.Equal(t, -1, n.Compare("apple", "Banana"))
	assert.Equal(t, 1, n.Compare("zebra", "Apple"))
}

func TestNameComparerLocale(t *testing.T) {
	// Swedish sorts "ö" after "z"; English interleaves it with "o".
	sv := NewNameComparer(language.Swedish)
	assert.Equal(t, 1, sv.Compare("öl", "zebra"))

	en := NewNameComparer(language.English)
	assert.Equal(t, -1, en.Compare("öl", "zebra"))
}
