package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/orders?page=3&limit=20", nil)
	skip, limit := ParsePagination(r, 10, 50)
	assert.Equal(t, int64(40), skip)
	assert.Equal(t, int64(20), limit)

	r = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	skip, limit = ParsePagination(r, 10, 50)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(10), limit)

	r = httptest.NewRequest(http.MethodGet, "/api/orders?limit=500&page=0", nil)
	skip, limit = ParsePagination(r, 10, 50)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(50), limit)
}

func TestParseSort(t *testing.T) {
	def := bson.D{{Key: "createdAt", Value: -1}}
	known := map[string]bson.D{
		"oldest": {{Key: "createdAt", Value: 1}},
	}

	assert.Equal(t, known["oldest"], ParseSort("oldest", def, known))
	assert.Equal(t, def, ParseSort("sideways", def, known))
	assert.Equal(t, def, ParseSort("", def, known))
}
