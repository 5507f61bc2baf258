// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
)

// Response is what a handler wrote.
type Response struct {
	Code int
	Body string
}

// Serve runs one request against handler.
func Serve(handler http.Handler, method, path string) Response {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return Response{Code: rr.Code, Body: rr.Body.String()}
}

// Get is Serve for GET requests.
func Get(handler http.Handler, path string) Response {
	return Serve(handler, http.MethodGet, path)
}
