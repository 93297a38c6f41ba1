package pagination

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort is an ORDER BY parsed from a `sort` query value such as "-updated_at".
type Sort struct {
	Column string
	Desc   bool
}

// ParseSort resolves raw against the allowed columns. An empty value yields
// def; an unknown column reports ok=false.
func ParseSort(raw string, allowed []string, def Sort) (Sort, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	s := Sort{Column: raw}
	if strings.HasPrefix(raw, "-") {
		s = Sort{Column: raw[1:], Desc: true}
	}
	for _, col := range allowed {
		if col == s.Column {
			return s, true
		}
	}
	return Sort{}, false
}

// Order returns a GORM scope applying the sort, with id as tiebreaker so pages
// are stable.
func Order(s Sort) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: s.Desc})
	}
}
