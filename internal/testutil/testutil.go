// Package testutil provides shared test fixtures: synthetic raster grids
// and helpers for exercising HTTP handlers.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Serve runs one request through h and returns the recorded response.
func Serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertHeaderContains checks that header key of w contains want.
func AssertHeaderContains(t testing.TB, w *httptest.ResponseRecorder, key, want string) {
	t.Helper()
	got := w.Header().Get(key)
	if want != "" && !strings.Contains(strings.ToLower(got), strings.ToLower(want)) {
		t.Errorf("header %s = %q, want it to contain %q", key, got, want)
	}
}
