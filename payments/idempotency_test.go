package payments

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHashIsStableForIdenticalRequests(t *testing.T) {
	body := []byte(`{"items":[{"productId":"p1","quantity":2}]}`)
	r1 := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body))
	r2 := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body))

	assert.Equal(t, computeRequestHash(r1, body, "u1"), computeRequestHash(r2, body, "u1"))
}

func TestRequestHashChangesWithBodyUserAndPath(t *testing.T) {
	body := []byte(`{"items":[{"productId":"p1","quantity":2}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body))
	base := computeRequestHash(r, body, "u1")

	otherBody := []byte(`{"items":[{"productId":"p1","quantity":3}]}`)
	assert.NotEqual(t, base, computeRequestHash(r, otherBody, "u1"))
	assert.NotEqual(t, base, computeRequestHash(r, body, "u2"))

	otherPath := httptest.NewRequest(http.MethodPost, "/api/other", bytes.NewReader(body))
	assert.NotEqual(t, base, computeRequestHash(otherPath, body, "u1"))
}

func TestCaptureResponseWriterRecordsStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	crw := NewCaptureResponseWriter(rec)

	crw.WriteHeader(http.StatusCreated)
	_, err := crw.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, crw.Status())
	assert.JSONEq(t, `{"ok":true}`, string(crw.BodyBytes()))
	// the underlying writer saw the same response
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestCaptureResponseWriterIgnoresRepeatedWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	crw := NewCaptureResponseWriter(rec)

	crw.WriteHeader(http.StatusConflict)
	crw.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusConflict, crw.Status())
}

func TestIdempotentPassesThroughWithoutKey(t *testing.T) {
	called := false
	h := Idempotent(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("{}"))
	h(rec, r, nil)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
