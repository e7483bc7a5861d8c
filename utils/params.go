package utils

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ParsePagination returns skip/limit for a ?page=&limit= pair, clamped to
// maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int64) (skip, limit int64) {
	q := r.URL.Query()

	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return (page - 1) * limit, limit
}

// ParseSort maps a sort key to a Mongo sort document, falling back to def
// for unknown keys.
func ParseSort(key string, def bson.D, known map[string]bson.D) bson.D {
	if s, ok := known[key]; ok {
		return s
	}
	return def
}

// RegexFilter builds a case-insensitive substring match on field.
func RegexFilter(field, value string) bson.M {
	return bson.M{field: bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"}}
}

// FindAndDecode runs Find and decodes every document into a slice of T.
func FindAndDecode[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
