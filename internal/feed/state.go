package feed

import (
	"sort"

	"github.com/shoplight/shoplight-backend/internal/catalog"
)

// Status values for a user's feed session. StatusLoading is only ever
// observed by a caller that raced a load in flight; it is never persisted.
const (
	StatusIdle      = "idle"
	StatusLoading   = "loading"
	StatusLoaded    = "loaded"
	StatusExhausted = "exhausted"
)

// State is the per-user feed session persisted in Redis. Products
// accumulate across pages until the query changes or the upstream runs
// dry; the session never refetches a page it has already consumed.
type State struct {
	Query    string            `json:"query"`
	Page     int               `json:"page"`
	Status   string            `json:"status"`
	Products []catalog.Product `json:"products"`
}

func newState(query string) State {
	return State{
		Query:  query,
		Page:   1,
		Status: StatusIdle,
	}
}

// HasMore reports whether another page can still be fetched.
func (s State) HasMore() bool {
	return s.Status != StatusExhausted
}

// Categories returns the distinct categories seen so far, sorted.
func (s State) Categories() []string {
	seen := make(map[string]struct{}, 4)
	for _, product := range s.Products {
		seen[product.Category] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
