// Package testutil holds the request builders and response assertions shared
// by the HTTP-facing tests of the reconciliation service.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// IdentifyPath is the route every reconciliation request goes to.
const IdentifyPath = "/identify"

// NewRequest builds a request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody builds a JSON request from a raw body, so tests can send
// malformed or oddly typed documents.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewIdentifyRequest builds a POST /identify request from raw JSON.
func NewIdentifyRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return NewRequestWithBody(t, http.MethodPost, IdentifyPath, body)
}

// PostIdentify sends body to POST /identify on handler.
func PostIdentify(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	return DoRequest(handler, NewIdentifyRequest(t, body))
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// ReadBody returns the recorded body without draining it, so a response can
// be asserted on more than once.
func ReadBody(t *testing.T, rr *httptest.ResponseRecorder) []byte {
	t.Helper()
	require.NotNil(t, rr.Body, "response has no body")
	return rr.Body.Bytes()
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &result), "failed to unmarshal response")
	return &result
}

// UnmarshalErrorResponse decodes an httputil error body.
func UnmarshalErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	return *UnmarshalResponse[map[string]string](t, rr)
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the "error" code of the body.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	assert.Equal(t, expectedCode, UnmarshalErrorResponse(t, rr)["error"], "unexpected error code")
}

// AssertJSONPath checks the value at a dotted path such as
// "contact.primaryContactId". JSON numbers decode as float64.
func AssertJSONPath(t *testing.T, rr *httptest.ResponseRecorder, path string, expected any) {
	t.Helper()
	got, ok := lookupJSONPath(t, rr, path)
	if assert.True(t, ok, "path %q not found in %s", path, rr.Body.String()) {
		assert.Equal(t, expected, got, "unexpected value at %q", path)
	}
}

// AssertJSONHasKey checks that a dotted path resolves in the response body.
func AssertJSONHasKey(t *testing.T, rr *httptest.ResponseRecorder, path string) {
	t.Helper()
	_, ok := lookupJSONPath(t, rr, path)
	assert.True(t, ok, "path %q not found in %s", path, rr.Body.String())
}

// AssertJSONMissingKey checks that a dotted path does not resolve, for fields
// that must never leak such as error_description on server errors.
func AssertJSONMissingKey(t *testing.T, rr *httptest.ResponseRecorder, path string) {
	t.Helper()
	_, ok := lookupJSONPath(t, rr, path)
	assert.False(t, ok, "path %q unexpectedly present in %s", path, rr.Body.String())
}

func lookupJSONPath(t *testing.T, rr *httptest.ResponseRecorder, path string) (any, bool) {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal(ReadBody(t, rr), &doc), "failed to unmarshal response")
	for _, key := range strings.Split(path, ".") {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, false
		}
		if doc, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return doc, true
}
