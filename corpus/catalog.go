package corpus

import (
	"slices"
	"strings"
)

// Info describes a public text classification dataset.
type Info struct {
	Name    string
	Classes int
	Format  Format
}

var catalog = []Info{
	{Name: "ag_news", Classes: 4, Format: FormatTitleDescription},
	{Name: "amazon_review_full", Classes: 5, Format: FormatTitleDescription},
	{Name: "amazon_review_polarity", Classes: 2, Format: FormatTitleDescription},
	{Name: "db_pedia", Classes: 14, Format: FormatTitleDescription},
	{Name: "imdb", Classes: 2, Format: FormatSentenceLabel},
	{Name: "sogou_news", Classes: 5, Format: FormatTitleDescription},
	{Name: "yahoo_answers", Classes: 10, Format: FormatTitleDescription},
	{Name: "yelp_review", Classes: 5, Format: FormatTitleDescription},
	{Name: "yelp_review_polarity", Classes: 2, Format: FormatTitleDescription},
}

// Lookup returns the catalog entry for a dataset name.
func Lookup(name string) (Info, bool) {
	i := slices.IndexFunc(catalog, func(in Info) bool { return in.Name == strings.ToLower(name) })
	if i < 0 {
		return Info{}, false
	}
	return catalog[i], true
}

// Catalog returns all known datasets sorted by name.
func Catalog() []Info {
	return slices.Clone(catalog)
}
