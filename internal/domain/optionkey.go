package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultOptionKey is the sentinel key for variants without option values.
const DefaultOptionKey = "DEFAULT"

// NormalizeOptionTerm trims and uppercases an option name or value so that
// keys built from stored records and keys built from user input always agree,
// including for accented storefront terms such as "pequeño".
func NormalizeOptionTerm(raw string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(raw))
}

// OptionSelection pairs an option with one of its values for key building.
type OptionSelection struct {
	OptionName     string
	OptionPosition int
	Value          string
}

// BuildOptionKey produces the canonical combination key for a set of
// option selections: pairs sorted by (position, name) ascending, rendered
// as NAME:VALUE and joined with "|". The result is independent of input
// order, which is what makes duplicate combinations collide at write time.
func BuildOptionKey(selections []OptionSelection) string {
	if len(selections) == 0 {
		return DefaultOptionKey
	}

	sorted := make([]OptionSelection, len(selections))
	copy(sorted, selections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OptionPosition != sorted[j].OptionPosition {
			return sorted[i].OptionPosition < sorted[j].OptionPosition
		}
		return sorted[i].OptionName < sorted[j].OptionName
	})

	parts := make([]string, len(sorted))
	for i, sel := range sorted {
		parts[i] = sel.OptionName + ":" + sel.Value
	}
	return strings.Join(parts, "|")
}

// VariantOptionKey rebuilds the canonical key from a variant's stored
// value links.
func VariantOptionKey(values []VariantValue) string {
	selections := make([]OptionSelection, len(values))
	for i, v := range values {
		selections[i] = OptionSelection{
			OptionName:     v.OptionName,
			OptionPosition: v.OptionPosition,
			Value:          v.Value,
		}
	}
	return BuildOptionKey(selections)
}
