package block

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NameComparer provides locale and case insensitive procedure name matching.
//
// All name legality and uniqueness rules go through a single comparer so the
// registry and reconciler agree on what "same name" means. Strings are NFC
// normalized before collation so composed and decomposed forms compare equal.
//
// NameComparer is not safe for concurrent use: collate.Collator buffers are
// stateful. All callers run on the single mutation goroutine (see events).
type NameComparer struct {
	col *collate.Collator
}

// NewNameComparer creates a comparer for the given locale.
func NewNameComparer(tag language.Tag) *NameComparer {
	return &NameComparer{
		col: collate.New(tag, collate.IgnoreCase, collate.Loose),
	}
}

// NewDefaultNameComparer creates a comparer for the English locale.
// Hosts with a known UI locale should use NewNameComparer instead.
func NewDefaultNameComparer() *NameComparer {
	return NewNameComparer(language.English)
}

// Compare returns -1, 0, or +1 per the locale's case-insensitive ordering.
func (n *NameComparer) Compare(a, b string) int {
	return n.col.CompareString(norm.NFC.String(a), norm.NFC.String(b))
}

// Equal reports whether two names are the same under the locale's
// case-insensitive rules.
func (n *NameComparer) Equal(a, b string) bool {
	return n.Compare(a, b) == 0
}

// Key returns a case-folded, NFC-normalized form of a name for use as a map
// key. Two names for which Equal holds fold to the same key.
func (n *NameComparer) Key(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
