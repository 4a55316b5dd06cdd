package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eduenglish/backend/core"
)

var (
	orderingParam = "order"
	pageParam     = "page"
	limitParam    = "limit"
)

// Ordering binds the `order` query param: either `asc`/`desc`, or a list of fields (`-` prefix for descending).
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return
	}

	switch strings.ToLower(val) {
	case "asc":
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Ascending: true})
		return
	case "desc":
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Ascending: false})
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// Ascending reports whether field is ordered ascending; an unnamed `asc`/`desc` applies to any field.
func (ord Ordering) Ascending(field string) bool {
	for _, o := range ord.Orderings {
		if o.Field == "" || o.Field == field {
			return o.Ascending
		}
	}
	return false
}

// bindPagination reads the `page` and `limit` query params; invalid values fall back to the defaults.
func bindPagination(ctx echo.Context) core.Pagination {
	page := core.Pagination{
		Page:  queryInt(ctx, pageParam, 1),
		Limit: queryInt(ctx, limitParam, core.DefaultPageSize),
	}
	page.Clean()
	return page
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(ctx.QueryParam(name)))
	if err != nil {
		return fallback
	}
	return n
}

// queryBool returns nil unless the param is a valid boolean.
func queryBool(ctx echo.Context, name string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(ctx.QueryParam(name)))
	if err != nil {
		return nil
	}
	return &b
}
