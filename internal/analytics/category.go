package analytics

import (
	"strings"

	"golang.org/x/text/cases"
)

// OtherCategory is reported for line items no catalog entry matches.
const OtherCategory = "Other"

// MatchStrategy decides whether a line item name refers to a catalog name.
type MatchStrategy struct {
	Name  string
	Match func(itemName, catalogName string) bool
}

// MatchStrategies are tried in order; the first strategy with any matching
// catalog entry wins.
var MatchStrategies = []MatchStrategy{
	{Name: "exact", Match: matchExact},
	{Name: "case-insensitive", Match: matchFold},
	{Name: "substring", Match: matchContains},
}

func matchExact(item, catalog string) bool {
	return item == catalog
}

func matchFold(item, catalog string) bool {
	return fold(item) == fold(catalog)
}

func matchContains(item, catalog string) bool {
	fi, fc := fold(item), fold(catalog)
	if fi == "" || fc == "" {
		return false
	}
	return strings.Contains(fc, fi) || strings.Contains(fi, fc)
}

// fold does full Unicode case folding, so Cyrillic and Latin menu names
// compare the same way.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ResolveCategory returns the category id of the catalog entry matching
// itemName, or OtherCategory.
func ResolveCategory(itemName string, catalog []MenuCatalogEntry) string {
	if strings.TrimSpace(itemName) == "" {
		return OtherCategory
	}
	for _, s := range MatchStrategies {
		for _, e := range catalog {
			if e.CategoryID == "" || strings.TrimSpace(e.Name) == "" {
				continue
			}
			if s.Match(itemName, e.Name) {
				return e.CategoryID
			}
		}
	}
	return OtherCategory
}

// CategoryResolver maps line items to category names for one computation.
// It memoizes by item name; it is not safe for concurrent use.
type CategoryResolver struct {
	catalog []MenuCatalogEntry
	names   map[string]string // category id -> name
	memo    map[string]string // item name -> category name
}

func NewCategoryResolver(catalog []MenuCatalogEntry, categories []Category) *CategoryResolver {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return &CategoryResolver{
		catalog: catalog,
		names:   names,
		memo:    make(map[string]string),
	}
}

// Name returns the category name of a line item. A category id carried by
// the item itself is trusted when it names a known category.
func (r *CategoryResolver) Name(it OrderItem) string {
	if it.CategoryID != "" {
		if name, ok := r.names[it.CategoryID]; ok {
			return name
		}
	}
	if name, ok := r.memo[it.Name]; ok {
		return name
	}
	name := r.nameOf(ResolveCategory(it.Name, r.catalog))
	r.memo[it.Name] = name
	return name
}

func (r *CategoryResolver) nameOf(id string) string {
	if id == OtherCategory {
		return OtherCategory
	}
	if name, ok := r.names[id]; ok && name != "" {
		return name
	}
	return id
}
