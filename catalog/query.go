package catalog

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const defaultPageSize = 12
const maxPageSize = 60

var sortModes = map[string]bson.D{
	"featured":   {{Key: "isFeatured", Value: -1}, {Key: "salesCount", Value: -1}, {Key: "viewCount", Value: -1}, {Key: "productId", Value: 1}},
	"price-asc":  {{Key: "effectivePrice", Value: 1}, {Key: "productId", Value: 1}},
	"price-desc": {{Key: "effectivePrice", Value: -1}, {Key: "productId", Value: 1}},
	"name":       {{Key: "name", Value: 1}, {Key: "productId", Value: 1}},
	"newest":     {{Key: "createdAt", Value: -1}, {Key: "productId", Value: 1}},
}

// Params is the validated catalog query. Omitted facets impose no
// constraint.
type Params struct {
	Page     int
	Limit    int
	Search   string
	Category string
	MinPrice float64
	MaxPrice float64
	Occasion string
	Fabric   string
	Color    string
	Size     string
	InStock  bool
	SortBy   string

	hasMin bool
	hasMax bool
}

// ValidationError carries every malformed parameter; the whole request is
// rejected, never partially answered.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "invalid query parameters: " + strings.Join(e.Details, "; ")
}

// ParseParams validates the full query string up front.
func ParseParams(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{Page: 1, Limit: defaultPageSize, SortBy: "featured"}
	var details []string

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			details = append(details, fmt.Sprintf("page %q must be a positive integer", raw))
		} else {
			p.Page = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			details = append(details, fmt.Sprintf("limit %q must be a positive integer", raw))
		} else {
			if n > maxPageSize {
				n = maxPageSize
			}
			p.Limit = n
		}
	}
	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			details = append(details, fmt.Sprintf("minPrice %q must be a non-negative number", raw))
		} else {
			p.MinPrice, p.hasMin = v, true
		}
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			details = append(details, fmt.Sprintf("maxPrice %q must be a non-negative number", raw))
		} else {
			p.MaxPrice, p.hasMax = v, true
		}
	}
	if raw := q.Get("sortBy"); raw != "" {
		if _, ok := sortModes[raw]; !ok {
			details = append(details, fmt.Sprintf("sortBy %q is not a known sort mode", raw))
		} else {
			p.SortBy = raw
		}
	}
	if raw := q.Get("inStock"); raw != "" {
		switch raw {
		case "true":
			p.InStock = true
		case "false":
		default:
			details = append(details, fmt.Sprintf("inStock %q must be true or false", raw))
		}
	}

	p.Search = q.Get("search")
	p.Category = q.Get("category")
	p.Occasion = q.Get("occasion")
	p.Fabric = q.Get("fabric")
	p.Color = q.Get("color")
	p.Size = q.Get("size")

	if len(details) > 0 {
		return Params{}, &ValidationError{Details: details}
	}
	return p, nil
}

// facetFilter is the conjunction of all supplied facets over active
// products, before effective-price bounds are applied.
func (p Params) facetFilter() bson.M {
	filter := bson.M{"isActive": true}
	if p.Category != "" {
		filter["category"] = p.Category
	}
	if p.Occasion != "" {
		filter["occasion"] = p.Occasion
	}
	if p.Fabric != "" {
		filter["fabric"] = p.Fabric
	}
	if p.Color != "" {
		filter["color"] = p.Color
	}
	if p.Size != "" {
		filter["sizes"] = p.Size
	}
	if p.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	if p.Search != "" {
		filter["name"] = bson.M{"$regex": escapeRegex(p.Search), "$options": "i"}
	}
	return filter
}

// priceFilter compares each supplied bound against the computed
// effectivePrice field independently.
func (p Params) priceFilter() bson.M {
	bounds := bson.M{}
	if p.hasMin {
		bounds["$gte"] = p.MinPrice
	}
	if p.hasMax {
		bounds["$lte"] = p.MaxPrice
	}
	if len(bounds) == 0 {
		return nil
	}
	return bson.M{"effectivePrice": bounds}
}

func effectivePriceStage() bson.M {
	return bson.M{"$addFields": bson.M{"effectivePrice": bson.M{
		"$cond": []interface{}{bson.M{"$gt": []interface{}{"$salePrice", 0}}, "$salePrice", "$price"},
	}}}
}

// pipeline builds the full aggregation: facet match, effective price,
// price bounds, stable sort, page window.
func (p Params) pipeline() []bson.M {
	stages := []bson.M{{"$match": p.facetFilter()}, effectivePriceStage()}
	if pf := p.priceFilter(); pf != nil {
		stages = append(stages, bson.M{"$match": pf})
	}
	stages = append(stages,
		bson.M{"$sort": sortModes[p.SortBy]},
		bson.M{"$skip": int64(p.Page-1) * int64(p.Limit)},
		bson.M{"$limit": int64(p.Limit)},
	)
	return stages
}

// countPipeline shares the filter stages and ends in $count.
func (p Params) countPipeline() []bson.M {
	stages := []bson.M{{"$match": p.facetFilter()}, effectivePriceStage()}
	if pf := p.priceFilter(); pf != nil {
		stages = append(stages, bson.M{"$match": pf})
	}
	return append(stages, bson.M{"$count": "total"})
}

func escapeRegex(s string) string {
	specials := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Pagination is the page metadata returned with every product page.
type Pagination struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalCount      int64 `json:"totalCount"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

func paginate(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:            page,
		Limit:           limit,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
