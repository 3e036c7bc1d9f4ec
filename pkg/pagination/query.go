package pagination

import (
	"fmt"
	"math"

	"github.com/Astemirdum/book-service/pkg/errs"
	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

// Sorting describes the columns a resource exposes for ordering and the
// deterministic order used when the client does not pick one.
type Sorting struct {
	// Columns is the allow-list of sortable columns.
	Columns []string
	// Default is used when Spec.SortField is empty. Must be in Columns.
	Default string
	// Tiebreaker is appended to every ORDER BY so that equal sort keys keep
	// a stable order between pages. Must be in Columns.
	Tiebreaker string
}

// Fragments is the SQL rendered from a Spec. OrderBy holds only literals
// taken from the allow-list; limit and offset travel as bound arguments.
type Fragments struct {
	OrderBy []string
	Limit   string
	Args    []interface{}
}

// Build renders spec as ORDER BY and LIMIT/OFFSET fragments.
func Build(spec Spec, sorting Sorting) (Fragments, error) {
	field := spec.SortField()
	if field == "" {
		field = sorting.Default
	}
	column, ok := lookup(sorting.Columns, field)
	if !ok {
		return Fragments{}, errs.BadRequest(fmt.Sprintf("%s: unknown column %q", QueryParamSortBy, field))
	}

	dir := spec.Direction()
	if dir != Desc {
		dir = Asc
	}
	orderBy := []string{column + " " + string(dir)}
	if tb, ok := lookup(sorting.Columns, sorting.Tiebreaker); ok && tb != column {
		orderBy = append(orderBy, tb+" "+string(dir))
	}

	limit, err := toInt32(spec.Limit())
	if err != nil {
		return Fragments{}, err
	}
	if limit < 1 {
		return Fragments{}, errs.BadRequest(fmt.Sprintf("%s must be a positive integer", QueryParamLimit))
	}
	offset, err := toInt32(spec.Offset())
	if err != nil {
		return Fragments{}, err
	}

	return Fragments{
		OrderBy: orderBy,
		Limit:   "LIMIT ? OFFSET ?",
		Args:    []interface{}{limit, offset},
	}, nil
}

// Apply attaches the fragments to a squirrel SELECT.
func (f Fragments) Apply(b sq.SelectBuilder) sq.SelectBuilder {
	return b.OrderBy(f.OrderBy...).Suffix(f.Limit, f.Args...)
}

func toInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errs.Parameter(errors.Errorf("%d overflows int32", v))
	}
	return int32(v), nil
}
