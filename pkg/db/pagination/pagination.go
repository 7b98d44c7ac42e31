package pagination

const (
	defaultLimit = 25
	maxLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps user-supplied paging values into a safe range.
func Normalize(limit, offset int) Page {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
