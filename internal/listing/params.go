// Package listing normalizes untrusted pagination and sorting input into
// bounded values. Normalization never fails: anything out of range or off
// the allow-list falls back to the endpoint's default.
package listing

import "strconv"

// Direction is a validated sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Params is a normalized listing configuration, safe to hand to a repository.
type Params struct {
	Page    int
	PerPage int
	Sort    string
	Dir     Direction
}

// Offset returns the row offset implied by Page and PerPage.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Rules describes one endpoint's pagination bounds and sort allow-list.
type Rules struct {
	DefaultPerPage int
	MaxPerPage     int
	Sorts          map[string]bool
	DefaultSort    string
	DefaultDir     Direction
}

// Admin product lists: clamp perPage to [1,100], default 10, newest change first.
var AdminProducts = Rules{
	DefaultPerPage: 10,
	MaxPerPage:     100,
	Sorts:          allow("name", "price", "stock", "status", "updatedAt"),
	DefaultSort:    "updatedAt",
	DefaultDir:     Desc,
}

// Admin category lists: same clamp, alphabetical by default, sortable by
// linked-product count.
var AdminCategories = Rules{
	DefaultPerPage: 10,
	MaxPerPage:     100,
	Sorts:          allow("name", "slug", "count"),
	DefaultSort:    "name",
	DefaultDir:     Asc,
}

// Storefront product lists: clamp perPage to [1,48], default 12. Direction is
// baked into the sort key, so Dir stays at its default.
var ShopProducts = Rules{
	DefaultPerPage: 12,
	MaxPerPage:     48,
	Sorts:          allow("featured", "newest", "price-asc", "price-desc", "name"),
	DefaultSort:    "featured",
	DefaultDir:     Desc,
}

// Normalize turns raw query-string values into bounded Params. Absent or
// malformed values take the endpoint defaults; nothing here ever errors.
func (r Rules) Normalize(page, perPage, sort, dir string) Params {
	p := Params{
		Page:    1,
		PerPage: r.DefaultPerPage,
		Sort:    r.DefaultSort,
		Dir:     r.DefaultDir,
	}

	if n, err := strconv.Atoi(page); err == nil && n > 1 {
		p.Page = n
	}

	if n, err := strconv.Atoi(perPage); err == nil {
		switch {
		case n < 1:
			p.PerPage = 1
		case n > r.MaxPerPage:
			p.PerPage = r.MaxPerPage
		default:
			p.PerPage = n
		}
	}

	if r.Sorts[sort] {
		p.Sort = sort
	}

	switch Direction(dir) {
	case Asc, Desc:
		p.Dir = Direction(dir)
	}

	return p
}

// ShopSort resolves a storefront sort key, where direction is part of the
// key, into a repository sort key and direction. Unknown keys behave like
// "featured".
func ShopSort(key string) (string, Direction) {
	switch key {
	case "newest":
		return "createdAt", Desc
	case "price-asc":
		return "price", Asc
	case "price-desc":
		return "price", Desc
	case "name":
		return "name", Asc
	default: // featured
		return "updatedAt", Desc
	}
}

// Pages computes ceil(total/perPage) with a floor of one, so an empty
// collection still reports a single page.
func Pages(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

func allow(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
