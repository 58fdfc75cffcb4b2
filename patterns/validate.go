package patterns

import (
	"fmt"

	mapset "github.com/deckarep/golang-set"
)

// Duplicates - Lists repeated entries within each table. Duplicates aren't fatal (they only double-count a
// penalty), but a patterns file containing them is almost certainly a mistake.
func (t *Tables) Duplicates() []string {
	found := make([]string, 0)
	check := func(table string, values []string) {
		seen := mapset.NewThreadUnsafeSet()
		for _, v := range values {
			if !seen.Add(v) {
				found = append(found, fmt.Sprintf("%s: %s", table, v))
			}
		}
	}

	check(t.NSFW.Name(), t.NSFW.Keywords())
	check(t.Toxic.Name(), t.Toxic.Keywords())
	check(t.Domains.Name(), t.Domains.Expressions())
	suffixes := make([]string, 0)
	for _, ext := range t.Extensions.Extensions() {
		suffixes = append(suffixes, ext.Suffix)
	}
	check(t.Extensions.Name(), suffixes)
	check(t.Brands.Name(), t.Brands.Brands())
	check(t.Brands.Name()+" context", t.Brands.ContextWords())
	return found
}
