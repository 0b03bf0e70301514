package fieldmap

import "strings"

// Normalize lowers, trims and collapses whitespace and hyphens so that
// "Under Contract", "under-contract" and " under  contract" all compare
// equal. Stored option labels and caller input both go through this one
// function; the ID-lookup path and the text-preservation path share it, so
// the two matching rules cannot drift apart.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
