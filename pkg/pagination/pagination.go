// Package pagination turns untrusted pagination/sort query parameters into a
// validated Spec and renders that Spec as injection-safe SQL fragments.
package pagination

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/pkg/errors"
)

const (
	QueryParamPage          = "p"
	QueryParamLimit         = "limit"
	QueryParamSortBy        = "sort_by"
	QueryParamSortDirection = "sort_direction"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	DefaultPage  = 1
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Limits bounds the page size. Zero values fall back to DefaultLimit and MaxLimit.
type Limits struct {
	Default int64 `envconfig:"PAGINATION_DEFAULT_LIMIT" default:"20"`
	Max     int64 `envconfig:"PAGINATION_MAX_LIMIT" default:"100"`
}

func (l Limits) normalize() Limits {
	if l.Max <= 0 {
		l.Max = MaxLimit
	}
	if l.Max > math.MaxInt32 {
		l.Max = math.MaxInt32
	}
	if l.Default <= 0 {
		l.Default = DefaultLimit
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// Fields is a set of query parameters.
type Fields uint8

const (
	FieldPage Fields = 1 << iota
	FieldLimit
	FieldSortBy
	FieldSortDirection
)

func (f Fields) Has(field Fields) bool { return f&field != 0 }

// Params holds the raw query values as received over HTTP. Sent marks the
// parameters present in the query; a parameter with a non-empty value
// counts as sent even when Sent omits it.
type Params struct {
	Page          string
	Limit         string
	SortBy        string
	SortDirection string
	Sent          Fields
}

func ParamsFromQuery(q url.Values) Params {
	p := Params{
		Page:          q.Get(QueryParamPage),
		Limit:         q.Get(QueryParamLimit),
		SortBy:        q.Get(QueryParamSortBy),
		SortDirection: q.Get(QueryParamSortDirection),
	}
	for field, name := range map[Fields]string{
		FieldPage:          QueryParamPage,
		FieldLimit:         QueryParamLimit,
		FieldSortBy:        QueryParamSortBy,
		FieldSortDirection: QueryParamSortDirection,
	} {
		if q.Has(name) {
			p.Sent |= field
		}
	}
	return p
}

// given reports whether the client sent the parameter. Only absent
// parameters fall back to defaults; a sent but empty one is rejected.
func (p Params) given(field Fields, name, value string) (bool, error) {
	if value != "" {
		return true, nil
	}
	if p.Sent.Has(field) {
		return false, errs.BadRequest(fmt.Sprintf("%s must not be empty", name))
	}
	return false, nil
}

// Spec is a validated pagination/sort request. It is only produced by Parse,
// so limit is in (0, max], offset is non-negative and fits in int32, and
// sortField is either empty or a member of the allow-list it was parsed with.
type Spec struct {
	limit     int64
	offset    int64
	sortField string
	direction Direction
}

func (s Spec) Limit() int64         { return s.limit }
func (s Spec) Offset() int64        { return s.offset }
func (s Spec) SortField() string    { return s.sortField }
func (s Spec) Direction() Direction { return s.direction }

// Page is the 1-based page number s selects.
func (s Spec) Page() int64 {
	if s.limit == 0 {
		return DefaultPage
	}
	return s.offset/s.limit + 1
}

// Parse validates p and applies defaults. allowed is the set of columns the
// caller lets clients sort by; a sort_by outside it is rejected.
func Parse(p Params, allowed []string, limits Limits) (Spec, error) {
	limits = limits.normalize()
	spec := Spec{
		limit:     limits.Default,
		direction: Asc,
	}

	ok, err := p.given(FieldLimit, QueryParamLimit, p.Limit)
	if err != nil {
		return Spec{}, err
	}
	if ok {
		limit, err := strconv.ParseInt(p.Limit, 10, 64)
		if err != nil {
			return Spec{}, invalid(QueryParamLimit, p.Limit, err)
		}
		if limit < 1 {
			return Spec{}, errs.BadRequest(fmt.Sprintf("%s must be a positive integer", QueryParamLimit))
		}
		spec.limit = min(limit, limits.Max)
	}

	page := int64(DefaultPage)
	if ok, err = p.given(FieldPage, QueryParamPage, p.Page); err != nil {
		return Spec{}, err
	}
	if ok {
		if page, err = strconv.ParseInt(p.Page, 10, 64); err != nil {
			return Spec{}, invalid(QueryParamPage, p.Page, err)
		}
		if page < 1 {
			return Spec{}, errs.BadRequest(fmt.Sprintf("%s must be greater than or equal to 1", QueryParamPage))
		}
	}
	offset, err := pageOffset(page, spec.limit)
	if err != nil {
		return Spec{}, err
	}
	spec.offset = offset

	if ok, err = p.given(FieldSortBy, QueryParamSortBy, p.SortBy); err != nil {
		return Spec{}, err
	}
	if ok {
		column, ok := lookup(allowed, p.SortBy)
		if !ok {
			return Spec{}, errs.BadRequest(fmt.Sprintf("%s: unknown column %q, expected one of [%s]",
				QueryParamSortBy, p.SortBy, strings.Join(allowed, ", ")))
		}
		spec.sortField = column
	}

	if ok, err = p.given(FieldSortDirection, QueryParamSortDirection, p.SortDirection); err != nil {
		return Spec{}, err
	}
	if ok {
		switch strings.ToLower(p.SortDirection) {
		case "asc":
			spec.direction = Asc
		case "desc":
			spec.direction = Desc
		default:
			return Spec{}, errs.BadRequest(fmt.Sprintf("%s: expected asc or desc, got %q",
				QueryParamSortDirection, p.SortDirection))
		}
	}

	return spec, nil
}

// pageOffset converts a page number into a row offset that the store can
// bind as a 32-bit integer.
func pageOffset(page, limit int64) (int64, error) {
	skipped := page - 1
	if skipped > math.MaxInt32/limit {
		return 0, errs.Parameter(errors.Errorf("offset for page %d with limit %d overflows int32", page, limit))
	}
	return skipped * limit, nil
}

func invalid(field, value string, err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return errs.Parameter(errors.Wrap(err, field))
	}
	return errs.BadRequest(fmt.Sprintf("%s: %q is not an integer", field, value))
}

// lookup returns the allow-list entry equal to name rather than name itself.
func lookup(allowed []string, name string) (string, bool) {
	for _, column := range allowed {
		if column == name {
			return column, true
		}
	}
	return "", false
}
