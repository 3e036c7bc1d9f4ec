package pagination_test

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "title", "author", "created_at", "updated_at"}

func TestParse(t *testing.T) {
	t.Parallel()
	type want struct {
		limit, offset int64
		sortField     string
		direction     pagination.Direction
	}
	tests := []struct {
		name    string
		params  pagination.Params
		limits  pagination.Limits
		want    want
		wantErr bool
	}{
		{
			name:   "defaults",
			params: pagination.Params{},
			want:   want{limit: 20, offset: 0, direction: pagination.Asc},
		},
		{
			name:   "configured default",
			params: pagination.Params{},
			limits: pagination.Limits{Default: 5, Max: 10},
			want:   want{limit: 5, offset: 0, direction: pagination.Asc},
		},
		{
			name:   "page and limit",
			params: pagination.Params{Page: "3", Limit: "10"},
			want:   want{limit: 10, offset: 20, direction: pagination.Asc},
		},
		{
			name:   "limit clamped to max",
			params: pagination.Params{Limit: "1000"},
			limits: pagination.Limits{Default: 20, Max: 50},
			want:   want{limit: 50, offset: 0, direction: pagination.Asc},
		},
		{
			name:   "sort desc",
			params: pagination.Params{SortBy: "title", SortDirection: "DESC"},
			want:   want{limit: 20, sortField: "title", direction: pagination.Desc},
		},
		{
			name:   "sort asc lower case",
			params: pagination.Params{SortBy: "created_at", SortDirection: "asc"},
			want:   want{limit: 20, sortField: "created_at", direction: pagination.Asc},
		},
		{name: "page not an int", params: pagination.Params{Page: "not_an_int"}, wantErr: true},
		{name: "limit not an int", params: pagination.Params{Limit: "ten"}, wantErr: true},
		{name: "page zero", params: pagination.Params{Page: "0"}, wantErr: true},
		{name: "negative page", params: pagination.Params{Page: "-1"}, wantErr: true},
		{name: "limit zero", params: pagination.Params{Limit: "0"}, wantErr: true},
		{name: "negative limit", params: pagination.Params{Limit: "-5"}, wantErr: true},
		{name: "unknown sort column", params: pagination.Params{SortBy: "password"}, wantErr: true},
		{name: "injection in sort_by", params: pagination.Params{SortBy: "title; DROP TABLE book"}, wantErr: true},
		{name: "unknown direction", params: pagination.Params{SortDirection: "sideways"}, wantErr: true},
		{name: "page overflows int64", params: pagination.Params{Page: "99999999999999999999"}, wantErr: true},
		{name: "empty page", params: pagination.Params{Sent: pagination.FieldPage}, wantErr: true},
		{name: "empty limit", params: pagination.Params{Sent: pagination.FieldLimit}, wantErr: true},
		{name: "empty sort_by", params: pagination.Params{Sent: pagination.FieldSortBy}, wantErr: true},
		{name: "empty sort_direction", params: pagination.Params{Sent: pagination.FieldSortDirection}, wantErr: true},
		{name: "offset overflows int32", params: pagination.Params{Page: strconv.Itoa(math.MaxInt32), Limit: "100"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec, err := pagination.Parse(tt.params, columns, tt.limits)
			if tt.wantErr {
				require.Error(t, err)
				var appErr *errs.AppError
				require.True(t, errors.As(err, &appErr))
				require.Equal(t, errs.KindBadRequest, appErr.Kind)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want.limit, spec.Limit())
			require.Equal(t, tt.want.offset, spec.Offset())
			require.Equal(t, tt.want.sortField, spec.SortField())
			require.Equal(t, tt.want.direction, spec.Direction())
		})
	}
}

func TestParse_Bounds(t *testing.T) {
	t.Parallel()
	limits := pagination.Limits{Default: 20, Max: 100}
	for page := 1; page <= 50; page += 7 {
		for _, limit := range []int{1, 2, 19, 20, 99, 100, 101, 5000} {
			params := pagination.Params{Page: strconv.Itoa(page), Limit: strconv.Itoa(limit)}
			spec, err := pagination.Parse(params, columns, limits)
			require.NoError(t, err)
			require.GreaterOrEqual(t, spec.Offset(), int64(0))
			require.Greater(t, spec.Limit(), int64(0))
			require.LessOrEqual(t, spec.Limit(), limits.Max)
			require.Equal(t, int64(page), spec.Page())
		}
	}
}

func TestParamsFromQuery(t *testing.T) {
	t.Parallel()
	q, err := url.ParseQuery("p=2&limit=5&sort_by=author&sort_direction=desc&other=x")
	require.NoError(t, err)
	require.Equal(t, pagination.Params{
		Page:          "2",
		Limit:         "5",
		SortBy:        "author",
		SortDirection: "desc",
		Sent:          pagination.FieldPage | pagination.FieldLimit | pagination.FieldSortBy | pagination.FieldSortDirection,
	}, pagination.ParamsFromQuery(q))
}

func TestParamsFromQuery_EmptyValues(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		query string
		field pagination.Fields
		name  string
	}{
		{query: "p=", field: pagination.FieldPage, name: "p"},
		{query: "limit=", field: pagination.FieldLimit, name: "limit"},
		{query: "sort_by=", field: pagination.FieldSortBy, name: "sort_by"},
		{query: "sort_direction=", field: pagination.FieldSortDirection, name: "sort_direction"},
	} {
		q, err := url.ParseQuery(tt.query)
		require.NoError(t, err)
		params := pagination.ParamsFromQuery(q)
		require.Equal(t, pagination.Params{Sent: tt.field}, params, tt.query)

		_, err = pagination.Parse(params, columns, pagination.Limits{})
		var appErr *errs.AppError
		require.True(t, errors.As(err, &appErr), tt.query)
		require.Equal(t, errs.KindBadRequest, appErr.Kind)
		require.Equal(t, tt.name+" must not be empty", appErr.Message)
	}
}

func TestParamsFromQuery_Absent(t *testing.T) {
	t.Parallel()
	params := pagination.ParamsFromQuery(url.Values{})
	require.Equal(t, pagination.Params{}, params)

	spec, err := pagination.Parse(params, columns, pagination.Limits{})
	require.NoError(t, err)
	require.EqualValues(t, pagination.DefaultLimit, spec.Limit())
	require.Zero(t, spec.Offset())
}
