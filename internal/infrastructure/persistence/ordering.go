package persistence

import (
	"strings"
)

// sortColumns is the set of columns a listing may be ordered by. Client
// input never reaches ORDER BY unless it names one of them exactly.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// column returns name when it is allowed, the fallback otherwise
func (s sortColumns) column(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := s.allowed[name]; ok {
		return name
	}
	return s.fallback
}

// clause builds "<column> ASC|DESC". Direction defaults to DESC.
func (s sortColumns) clause(orderBy, orderDir string) string {
	return s.column(orderBy) + " " + sortDirection(orderDir)
}

func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var bookingSort = newSortColumns("created_at", "id", "updated_at", "preferred_date", "status", "quantity")
