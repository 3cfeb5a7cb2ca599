package naics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UnknownCodeTitle is returned by TitleFor when a code is not in the set.
const UnknownCodeTitle = "Unknown NAICS code"

// ErrInvalidSelection marks an inconsistent sector/category/type combination.
var ErrInvalidSelection = errors.New("naics: invalid classification selection")

var (
	indexOnce sync.Once
	byCode    map[string]Code
)

func index() map[string]Code {
	indexOnce.Do(func() {
		byCode = make(map[string]Code, len(sectors)+len(categories)+len(facilityTypes))
		for _, c := range sectors {
			byCode[c.Code] = c
		}
		for _, c := range categories {
			byCode[c.Code] = c
		}
		for _, c := range facilityTypes {
			byCode[c.Code] = c
		}
	})
	return byCode
}

// newCollator returns an English collator for title ordering. Collators are
// not safe for concurrent use, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// Sectors returns all eligible sectors ordered by code.
func Sectors() []Code {
	out := make([]Code, len(sectors))
	copy(out, sectors)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Lookup returns the entry for a code at any level.
func Lookup(code string) (Code, bool) {
	c, ok := index()[strings.TrimSpace(code)]
	return c, ok
}

// TitleFor returns the title for a code, or UnknownCodeTitle.
func TitleFor(code string) string {
	if c, ok := Lookup(code); ok {
		return c.Title
	}
	return UnknownCodeTitle
}

// CategoriesBySector returns the categories under a sector, ordered by code.
func CategoriesBySector(sector string) []Code {
	var out []Code
	for _, c := range categories {
		if c.Parent == sector {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// TypesByCategory returns the facility types under a category, ordered by
// title with locale-aware collation.
func TypesByCategory(category string) []Code {
	var out []Code
	for _, c := range facilityTypes {
		if c.Parent == category {
			out = append(out, c)
		}
	}
	col := newCollator()
	sort.Slice(out, func(i, j int) bool { return col.CompareString(out[i].Title, out[j].Title) < 0 })
	return out
}

// ValidateSelection checks that a sector/category/type triple is internally
// consistent: every code must exist at its level and parent links must
// match.
func ValidateSelection(sector, category, facilityType string) error {
	s, ok := Lookup(sector)
	if !ok || s.Level != 2 {
		return fmt.Errorf("%w: unknown sector %q", ErrInvalidSelection, sector)
	}
	c, ok := Lookup(category)
	if !ok || c.Level != 3 {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSelection, category)
	}
	if c.Parent != s.Code {
		return fmt.Errorf("%w: category %q does not belong to sector %q", ErrInvalidSelection, category, sector)
	}
	t, ok := Lookup(facilityType)
	if !ok || t.Level != 6 {
		return fmt.Errorf("%w: unknown facility type %q", ErrInvalidSelection, facilityType)
	}
	if t.Parent != c.Code {
		return fmt.Errorf("%w: facility type %q does not belong to category %q", ErrInvalidSelection, facilityType, category)
	}
	return nil
}

// DescribeSelection renders "Sector > Category > Type" for display. Codes
// outside the set render as UnknownCodeTitle.
func DescribeSelection(sector, category, facilityType string) string {
	return TitleFor(sector) + " > " + TitleFor(category) + " > " + TitleFor(facilityType)
}
